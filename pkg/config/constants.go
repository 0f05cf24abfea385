package config

const (
	// EnvPrefix is empty because every variable carries the SPACESTAR_ prefix in its tag.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
