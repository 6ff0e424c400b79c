package version

// Version is the engine version. Release builds override it through
// -ldflags.
var Version = "dev"
