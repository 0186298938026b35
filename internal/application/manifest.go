package application

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// manifest is the YAML document accepted by the command-line client:
//
//	owner: acme
//	repo: app
//	environment: prod
//	kind: variables
//	items:
//	  FOO: bar
type manifest struct {
	Owner       string    `yaml:"owner"`
	Repo        string    `yaml:"repo"`
	Environment string    `yaml:"environment"`
	Kind        string    `yaml:"kind"`
	Items       yaml.Node `yaml:"items"`
}

// ParseManifest decodes a YAML manifest into a request without a token.
func ParseManifest(data []byte) (model.ProvisionRequest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return model.ProvisionRequest{}, fmt.Errorf("parse manifest: %w", err)
	}

	kind, ok := model.ParseItemKind(m.Kind)
	if !ok {
		return model.ProvisionRequest{}, fmt.Errorf("manifest: unknown kind %q (want secrets or variables)", m.Kind)
	}

	var items []model.Item
	if m.Items.Kind != 0 {
		parsed, err := itemsFromYAML(&m.Items)
		if err != nil {
			return model.ProvisionRequest{}, fmt.Errorf("manifest items: %w", err)
		}
		items = parsed
	}

	return model.ProvisionRequest{
		Params: model.ConnectionParams{
			Owner:       m.Owner,
			Repo:        m.Repo,
			Environment: m.Environment,
			Kind:        kind,
		},
		Items: items,
	}, nil
}
