package lineage

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeRowHandle returns an opaque, base64-encoded identifier for one row
// of schema.table, carrying its primary key values. This is the natural
// client-facing complement to RewriteSelectInjectPKs: once a rewritten
// SELECT has projected a source table's primary key alongside its other
// columns, a client can pack those projected values back into one stable
// handle (rather than resending every primary key column on every
// follow-up request) to name "this exact row" in a later edit or lookup.
//
// The encoded form is "schema.table|col=val,...", e.g.
// "public.actor|actor_id=5".
func EncodeRowHandle(schema, table string, pkCols []string, pkVals []any) string {
	kvPairs := make([]string, len(pkCols))
	for i := range pkCols {
		kvPairs[i] = fmt.Sprintf("%s=%v", pkCols[i], pkVals[i])
	}
	raw := fmt.Sprintf("%s.%s|%s", schema, table, strings.Join(kvPairs, ","))
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeRowHandle reverses EncodeRowHandle.
func DecodeRowHandle(h string) (schema, table string, pk map[string]any, err error) {
	b, err := base64.RawURLEncoding.DecodeString(h)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid base64: %w", err)
	}

	parts := strings.SplitN(string(b), "|", 2)
	if len(parts) != 2 {
		return "", "", nil, fmt.Errorf("malformed row handle")
	}

	st := parts[0] // e.g. "public.actor"
	keyPart := parts[1]

	split := strings.SplitN(st, ".", 2)
	if len(split) != 2 {
		return "", "", nil, fmt.Errorf("malformed table path")
	}
	schema, table = split[0], split[1]

	pk = make(map[string]any)
	for _, kv := range strings.Split(keyPart, ",") {
		if kv == "" {
			continue
		}
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			continue
		}
		pk[strings.TrimSpace(pair[0])] = strings.TrimSpace(pair[1])
	}
	return schema, table, pk, nil
}
