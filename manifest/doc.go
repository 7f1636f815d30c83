// Package manifest parses package manifests.
//
// A manifest is a Starlark file, conventionally named MANIFEST.star, that
// names the package and declares its dependencies:
//
//	package("app", version = "1.0.0", registries = ["https://registry.example.com"])
//
//	dep("log", "^1.2.0")
//	dep("http", ">=2.0.0, <3.0.0")
//	dep(name = "testkit", version = "~0.4", dev = True)
//
// Arguments may be given positionally or by keyword. Constraints use the
// syntax of the version package. Registries publish the same format for every
// package version, so the parser serves both the root project and the
// registry oracles.
package manifest
