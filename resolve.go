package buildpipe

import (
	"fmt"
	"path/filepath"
	"reflect"

	"dario.cat/mergo"

	"github.com/davidroman0O/buildpipe/manifest"
)

// Resolve deep-merges user options over the defaults template and returns
// the resolved configuration. Caller values always win; defaults only fill
// fields the caller left empty. When mergeSlices is true, list-valued
// options are concatenated (caller entries first, template entries after)
// instead of replaced. This is the governing merge rule for every stage's
// option sub-object.
//
// Before the generic merge, three defaults are derived from the caller's
// roots, but only when both Base and Dest are set:
//
//  1. Clean = [Dest, Base/views/.contentful], covering built output and
//     the cached content snapshot (skipped when the caller supplied Clean,
//     so an explicit cleanup list is never extended by the computed one);
//  2. Serve.Server.BaseDir = Dest;
//  3. Views.Value.Metadata.RewritePath = a helper resolving asset paths
//     through the rev manifest at Dest/RevManifest.
//
// When Base or Dest is missing these are skipped entirely; consumers treat
// the unset fields as "no cleanup, no explicit server directory".
//
// Neither input is mutated; resolving the same inputs twice yields
// identical results.
func Resolve(user, defaults Options, mergeSlices bool) (Options, error) {
	resolved := cloneOptions(user)
	def := cloneOptions(defaults)

	if user.Base != "" && user.Dest != "" {
		if len(user.Clean) == 0 {
			def.Clean = []string{
				user.Dest,
				filepath.Join(user.Base, "views", ".contentful"),
			}
		}

		def.Serve.Server.BaseDir = user.Dest

		name := user.RevManifest
		if name == "" {
			name = def.RevManifest
		}
		if name == "" {
			name = DefaultRevManifestName
		}
		def.Views.Value.Metadata.RewritePath = manifest.Rewriter(user.Dest, name)
	}

	opts := []func(*mergo.Config){
		mergo.WithTransformers(funcTransformer{}),
	}
	if mergeSlices {
		opts = append(opts, mergo.WithAppendSlice)
	}

	if err := mergo.Merge(&resolved, def, opts...); err != nil {
		return Options{}, fmt.Errorf("merging options: %w", err)
	}

	return resolved, nil
}

// funcTransformer teaches mergo to treat function-valued fields like any
// other scalar: a nil caller function is filled from the template, a
// non-nil one is kept.
type funcTransformer struct{}

func (funcTransformer) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t.Kind() != reflect.Func {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && dst.IsNil() && !src.IsNil() {
			dst.Set(src)
		}
		return nil
	}
}

// cloneOptions returns a copy of o that shares no slice backing with the
// original, so the merge can never write through to caller-owned data.
func cloneOptions(o Options) Options {
	out := o
	out.Clean = append([]string(nil), o.Clean...)
	out.Watch.Paths = append([]string(nil), o.Watch.Paths...)
	out.Images = cloneRule(o.Images)
	out.Video = cloneRule(o.Video)
	out.Fonts = cloneRule(o.Fonts)
	out.Documents = cloneRule(o.Documents)
	out.Files = cloneRule(o.Files)
	out.Scripts = cloneRule(o.Scripts)
	out.Styles = cloneRule(o.Styles)
	out.Rev = cloneRule(o.Rev)
	return out
}

func cloneRule(s Setting[AssetRule]) Setting[AssetRule] {
	s.Value.Src = append([]string(nil), s.Value.Src...)
	return s
}
