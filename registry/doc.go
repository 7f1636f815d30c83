// Package registry serves package metadata to the resolver.
//
// A registry publishes, for each package, a metadata.json listing its
// versions and one MANIFEST.star per version declaring its dependencies:
//
//	registry/
//	└── packages/
//	    └── {name}/
//	        ├── metadata.json     # versions, yanked versions, deprecation
//	        └── {version}/
//	            └── MANIFEST.star # package() and dep() calls
//
// Sources:
//
//   - Client: HTTP(S) registry
//   - Local: the same layout on disk, addressed with file:// URLs
//   - Index: a whole registry in one YAML file
//   - Chain: ordered fallback across several sources
//   - Cached: persists answers in a cache.Cache
//
// Oracle adapts any Source to the resolver's graph.Oracle interface.
//
// # Usage
//
//	src, err := registry.Open([]string{
//	    "https://packages.example.com",
//	    "file:///srv/mirror",
//	})
//	if err != nil {
//	    return err
//	}
//	oracle := registry.NewOracle(src)
//	versions, err := oracle.ListVersions(ctx, "log")
package registry
