package cli

var (
	VersionCmd = versionCmd
	MigrateCmd = migrateCmd
	HealthCmd  = healthCmd
)
