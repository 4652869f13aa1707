package source

import "strings"

// doc is the keyed view over one raw aircraft entry. Accessors mirror the
// upstream JSON: absent keys normalize to "" for strings and null for
// everything else, so a record always carries the full field schema.
type doc map[string]any

func (d doc) has(k string) bool {
	_, ok := d[k]
	return ok
}

func (d doc) val(k string) any { return d[k] }

func (d doc) valOr(k string, def any) any {
	if v, ok := d[k]; ok {
		return v
	}
	return def
}

func (d doc) str(k string) string {
	if s, ok := d[k].(string); ok {
		return s
	}
	return ""
}

func (d doc) lower(k string) string   { return strings.ToLower(d.str(k)) }
func (d doc) trimmed(k string) string { return strings.TrimSpace(d.str(k)) }

// hasPosition is the universal publish filter: no latitude/longitude, no
// record. strictKeys distinguishes the feeds that omit the keys entirely
// from the one that sends explicit nulls.
func (d doc) hasPosition(strictKeys bool) bool {
	if strictKeys {
		return d.has("lat") && d.has("lon")
	}
	return d.val("lat") != nil && d.val("lon") != nil
}

// mapCommon holds the field schema shared by the aircraft-list feeds.
func mapCommon(d doc) Record {
	return Record{
		// Core identification
		"hex":    d.lower("hex"),
		"type":   d.str("type"),
		"flight": d.trimmed("flight"),
		"r":      d.str("r"),
		"t":      d.str("t"),
		"desc":   d.str("desc"),
		// Position data
		"lat":       d.val("lat"),
		"lon":       d.val("lon"),
		"alt_baro":  d.val("alt_baro"),
		"alt_geom":  d.val("alt_geom"),
		"gs":        d.val("gs"),
		"track":     d.val("track"),
		"baro_rate": d.val("baro_rate"),
		// Status
		"squawk":    d.str("squawk"),
		"emergency": d.str("emergency"),
		"category":  d.str("category"),
		// Navigation
		"nav_qnh":          d.val("nav_qnh"),
		"nav_altitude_mcp": d.val("nav_altitude_mcp"),
		// Quality indicators
		"nic":      d.val("nic"),
		"rc":       d.val("rc"),
		"version":  d.val("version"),
		"nic_baro": d.val("nic_baro"),
		"nac_p":    d.val("nac_p"),
		"nac_v":    d.val("nac_v"),
		"sil":      d.val("sil"),
		"sil_type": d.str("sil_type"),
		"gva":      d.val("gva"),
		"sda":      d.val("sda"),
		// Alerts
		"alert": d.val("alert"),
		"spi":   d.val("spi"),
		// Timing
		"seen_pos": d.val("seen_pos"),
		"seen":     d.val("seen"),
		// Receiver stats
		"rssi":     d.val("rssi"),
		"messages": d.val("messages"),
	}
}

func mapLocal(d doc) Record {
	rec := mapCommon(d)
	rec["r_dst"] = d.val("r_dst")
	rec["r_dir"] = d.val("r_dir")
	rec["ownOp"] = d.str("ownOp")
	rec["year"] = d.str("year")
	return rec
}

func mapRegional(d doc) Record {
	rec := mapCommon(d)
	rec["nav_modes"] = d.valOr("nav_modes", []any{})
	rec["dst"] = d.val("dst")
	rec["dir"] = d.val("dir")
	rec["ownOp"] = d.str("ownOp")
	rec["year"] = d.str("year")
	return rec
}

func mapGlobalStream(d doc) Record {
	rec := mapCommon(d)
	rec["nav_modes"] = d.valOr("nav_modes", []any{})
	rec["dst"] = d.val("dst")
	rec["dir"] = d.val("dir")
	return rec
}
