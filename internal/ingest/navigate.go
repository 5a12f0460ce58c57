package ingest

import "errors"

// ErrNoVideos is the single terminal condition for a page whose tabs all
// yielded an empty video list.
var ErrNoVideos = errors.New("no videos found on channel page")

// layoutProbe inspects one tab's content for a known container shape and
// returns the raw per-video sub-trees in display order, or nil when the shape
// is absent or empty. The platform ships structurally incompatible layouts
// for the same logical list; new layouts are supported by appending a probe.
type layoutProbe func(tabContent map[string]interface{}) []map[string]interface{}

var layoutProbes = []layoutProbe{richGridProbe, sectionListProbe}

// FindVideoEntries walks the parsed blob, scanning browse tabs in page order
// and trying each layout probe per tab. The first non-empty result wins.
func FindVideoEntries(data map[string]interface{}) ([]map[string]interface{}, error) {
	tabs := asSlice(dig(data, "contents", "twoColumnBrowseResultsRenderer", "tabs"))
	for _, raw := range tabs {
		tab, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		content := asMap(dig(tab, "tabRenderer", "content"))
		if content == nil {
			continue
		}
		for _, probe := range layoutProbes {
			if entries := probe(content); len(entries) > 0 {
				return entries, nil
			}
		}
	}
	return nil, ErrNoVideos
}

// richGridProbe handles the modern grid layout:
// richGridRenderer.contents[].richItemRenderer.content.videoRenderer
func richGridProbe(content map[string]interface{}) []map[string]interface{} {
	items := asSlice(dig(content, "richGridRenderer", "contents"))
	var out []map[string]interface{}
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if vr := asMap(dig(item, "richItemRenderer", "content", "videoRenderer")); vr != nil {
			out = append(out, vr)
		}
	}
	return out
}

// sectionListProbe handles the legacy sectioned layout:
// sectionListRenderer.contents[].itemSectionRenderer.contents[].gridRenderer.items[].gridVideoRenderer
func sectionListProbe(content map[string]interface{}) []map[string]interface{} {
	sections := asSlice(dig(content, "sectionListRenderer", "contents"))
	var out []map[string]interface{}
	for _, rawSection := range sections {
		section, ok := rawSection.(map[string]interface{})
		if !ok {
			continue
		}
		for _, rawItem := range asSlice(dig(section, "itemSectionRenderer", "contents")) {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				continue
			}
			for _, rawVideo := range asSlice(dig(item, "gridRenderer", "items")) {
				video, ok := rawVideo.(map[string]interface{})
				if !ok {
					continue
				}
				if vr := asMap(video["gridVideoRenderer"]); vr != nil {
					out = append(out, vr)
				}
			}
		}
	}
	return out
}

// dig walks nested maps by key, returning nil as soon as a step is missing.
func dig(node interface{}, path ...string) interface{} {
	cur := node
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
