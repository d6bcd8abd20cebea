// Package cli provides the filmsync command line interface built on cobra.
//
// Commands drive the core through package-level service variables. The
// entry point installs them with SetInitializer once flags are parsed, and
// tests install mocks with SetServices.
package cli
