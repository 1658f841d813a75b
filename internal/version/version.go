package version

// Version is set during build via -ldflags "-X tubefetch/internal/version.Version=X.Y.Z"
var Version = "dev"
