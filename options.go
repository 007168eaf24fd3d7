package buildpipe

import "time"

// DefaultRevManifestName is the fingerprint manifest filename used when
// Options.RevManifest is empty.
const DefaultRevManifestName = "rev-manifest.json"

// Options is the full configuration tree for a pipeline.
// Callers fill in what they need; Resolve merges the rest from
// DefaultOptions and from defaults derived from Base and Dest.
type Options struct {
	// Base is the source root path
	Base string `yaml:"base,omitempty"`
	// Dest is the output root path
	Dest string `yaml:"dest,omitempty"`

	// Clean is the ordered list of paths removed by the clean task.
	// When empty and both Base and Dest are set, it defaults to
	// [Dest, Base/views/.contentful].
	Clean []string `yaml:"clean,omitempty"`

	// RevManifest is the fingerprint manifest filename under Dest.
	// Empty means DefaultRevManifestName.
	RevManifest string `yaml:"revManifest,omitempty"`

	// Views configures the templated-page stage.
	// Disabled skips the stage entirely; Absent means "use defaults".
	Views Setting[ViewsOptions] `yaml:"views,omitempty"`

	// Sitemap configures sitemap generation. Unlike Views, the stage
	// only runs when the option was configured at all: Absent means
	// "no sitemap", an enabled empty value still turns it on.
	Sitemap Setting[SitemapOptions] `yaml:"sitemap,omitempty"`

	// Serve configures the local dev server.
	Serve ServeOptions `yaml:"serve,omitempty"`

	// Watch configures file-change reactions while serving.
	Watch WatchOptions `yaml:"watch,omitempty"`

	// Per-asset-type rules, delegated as one slice to the AssetProvider.
	Images    Setting[AssetRule] `yaml:"images,omitempty"`
	Video     Setting[AssetRule] `yaml:"video,omitempty"`
	Fonts     Setting[AssetRule] `yaml:"fonts,omitempty"`
	Documents Setting[AssetRule] `yaml:"documents,omitempty"`
	Files     Setting[AssetRule] `yaml:"files,omitempty"`
	Scripts   Setting[AssetRule] `yaml:"scripts,omitempty"`
	Styles    Setting[AssetRule] `yaml:"styles,omitempty"`
	Rev       Setting[AssetRule] `yaml:"rev,omitempty"`
}

// ViewsOptions configures the templated-page stage.
type ViewsOptions struct {
	// Src is the glob of view templates relative to Base.
	Src string `yaml:"src,omitempty"`

	// Metadata is handed through to every template render.
	Metadata ViewsMetadata `yaml:"metadata,omitempty"`
}

// ViewsMetadata carries data the templated-page provider exposes to
// templates during rendering.
type ViewsMetadata struct {
	// Env is an arbitrary label templates may branch on.
	Env string `yaml:"env,omitempty"`

	// RewritePath maps an asset path to its fingerprinted output path
	// by consulting the rev manifest under Dest. Resolve installs a
	// default when Base and Dest are known; a caller-supplied function
	// always wins.
	RewritePath func(path string) string `yaml:"-" json:"-"`
}

// SitemapOptions configures sitemap generation.
type SitemapOptions struct {
	// SiteURL is the absolute site root prepended to every page path.
	SiteURL string `yaml:"siteUrl,omitempty"`

	// Filename is the output document name under Dest.
	// Empty means "sitemap.xml".
	Filename string `yaml:"filename,omitempty"`

	// ChangeFreq and Priority are emitted per URL when non-empty.
	ChangeFreq string `yaml:"changeFreq,omitempty"`
	Priority   string `yaml:"priority,omitempty"`
}

// ServeOptions configures the local dev server stage.
type ServeOptions struct {
	// Server holds the static file server settings.
	Server ServerOptions `yaml:"server,omitempty"`

	// LiveReload toggles the reload websocket and script injection.
	LiveReload bool `yaml:"liveReload,omitempty"`
}

// ServerOptions holds the static file server settings.
type ServerOptions struct {
	// BaseDir is the directory served as the site root.
	// Defaults to Dest when Base and Dest are set.
	BaseDir string `yaml:"baseDir,omitempty"`

	// Host and Port are the listen address. Zero port picks an
	// ephemeral one.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// WatchOptions configures file-change reactions for the dev server.
type WatchOptions struct {
	// Paths are the directories watched recursively.
	// Empty means the server's BaseDir.
	Paths []string `yaml:"paths,omitempty"`

	// Debounce groups rapid change bursts into one reload.
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// AssetRule is the option sub-object for one asset type, passed through
// to the external asset pipeline untouched.
type AssetRule struct {
	// Src is the list of source globs relative to Base.
	Src []string `yaml:"src,omitempty"`

	// Dest is the output directory relative to the pipeline Dest.
	Dest string `yaml:"dest,omitempty"`
}

// AssetOptions is the filtered slice of the resolved configuration handed
// to the AssetProvider: asset rules plus the roots, nothing reserved for
// other stages.
type AssetOptions struct {
	Base        string
	Dest        string
	RevManifest string

	Images    Setting[AssetRule]
	Video     Setting[AssetRule]
	Fonts     Setting[AssetRule]
	Documents Setting[AssetRule]
	Files     Setting[AssetRule]
	Scripts   Setting[AssetRule]
	Styles    Setting[AssetRule]
	Rev       Setting[AssetRule]
}

// DefaultOptions returns the static default template merged under caller
// options. A fresh value is built on every call so no default computed
// against one set of roots can leak into a resolution with different ones.
func DefaultOptions() Options {
	return Options{
		RevManifest: DefaultRevManifestName,
		Views: Enabled(ViewsOptions{
			Src: "views/**/*.html",
		}),
		Serve: ServeOptions{
			Server: ServerOptions{
				Host: "localhost",
				Port: 3000,
			},
			LiveReload: true,
		},
		Watch: WatchOptions{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// assetOptions extracts the slice of the configuration owned by the
// external asset pipeline.
func (o Options) assetOptions() AssetOptions {
	return AssetOptions{
		Base:        o.Base,
		Dest:        o.Dest,
		RevManifest: o.RevManifest,
		Images:      o.Images,
		Video:       o.Video,
		Fonts:       o.Fonts,
		Documents:   o.Documents,
		Files:       o.Files,
		Scripts:     o.Scripts,
		Styles:      o.Styles,
		Rev:         o.Rev,
	}
}
