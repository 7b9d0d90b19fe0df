package config

import "embed"

const presetsSchemaFile = "schema/presets.schema.json"

//go:embed schema/*.json
var configSchemaFS embed.FS
