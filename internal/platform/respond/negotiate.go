package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into media ranges. Empty elements are skipped, a
// bare type is read as type/*, and a missing or invalid q defaults to 1.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mr := mediaRange{q: 1}
		typ, sub, found := strings.Cut(strings.ToLower(strings.TrimSpace(params[0])), "/")
		mr.typ = typ
		mr.subtype = "*"
		if found && sub != "" {
			mr.subtype = sub
		}
		for _, p := range params[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q >= 0 && q <= 1 {
				mr.q = q
			}
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// selectFormat reports whether the client prefers CBOR over JSON. CBOR has to be asked
// for explicitly; wildcards and unknown types resolve to JSON.
func selectFormat(accept string) bool {
	var qJSON, qCBOR float64
	for _, mr := range parseAccept(accept) {
		switch {
		case mr.typ == "*" && mr.subtype == "*":
			qJSON = max(qJSON, mr.q)
		case mr.typ != "application":
			continue
		case mr.subtype == "cbor" || strings.HasSuffix(mr.subtype, "+cbor"):
			qCBOR = max(qCBOR, mr.q)
		case mr.subtype == "*" || mr.subtype == "json" || strings.HasSuffix(mr.subtype, "+json"):
			qJSON = max(qJSON, mr.q)
		}
	}
	return qCBOR > 0 && qCBOR > qJSON
}
