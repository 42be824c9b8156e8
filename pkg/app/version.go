package app

// Version is the release of the embed builder, overridden at build time
// with -ldflags "-X github.com/small-frappuccino/embedbuilder/pkg/app.Version=...".
var Version = "dev"
