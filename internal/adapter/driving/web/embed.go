package web

import "embed"

// StaticFS holds the embedded stylesheet and form/progress script.
//
//go:embed static/*
var StaticFS embed.FS
