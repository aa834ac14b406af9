package commands

// FindLeadDependency exports findLeadDependency for testing.
var FindLeadDependency = findLeadDependency //nolint:gochecknoglobals // test export
