// Package internal contains the core implementation packages for ogcard.
//
// # Package Organization
//
// The internal packages are organized by pipeline stage:
//
//   - config: Configuration loading, defaults and structural validation
//   - scanner, registry: Post discovery from frontmatter and the post index
//   - templates, markup: Card templates producing a markup tree
//   - fonts, layout, vector: Text measurement, flexbox layout and the SVG scene
//   - raster: Rasterization and WebP, JPEG, AVIF or PNG encoding
//   - renderer: The Generate orchestrator tying the stages together
//   - server: Image routes, the preview server and live reload
//   - build: Calls the image routes once per artifact and writes the files
//   - audit: Checks a built site's og:image references
//   - watcher: Debounced file system monitoring
//   - errors, logging, validation, version: Shared infrastructure
//
// # Inter-Package Communication
//
//   - Configuration and fonts are loaded once and passed explicitly
//   - Scanner parses files and populates the registry
//   - Image routes look posts up in the registry and call the renderer
//   - The build exporter and the preview server share the same routes
//   - Watcher batches changes that trigger rescans, rebuilds and reloads
//
// For detailed documentation, see the individual package documentation.
package internal
