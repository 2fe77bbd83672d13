package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stationkit/powersdk/datatype"
	"github.com/stationkit/powersdk/schema"
)

// fingerprintItems reduces a schema's items to name -> fingerprint
// string, used by conflict() to detect offset/type/required/
// transform changes between an existing and a candidate schema.
func fingerprintItems(items []schema.Item) map[string]string {
	out := make(map[string]string, len(items))
	for _, item := range items {
		out[item.FieldName()] = fingerprintItem(item)
	}
	return out
}

func fingerprintItem(item schema.Item) string {
	switch f := item.(type) {
	case *schema.Field:
		return fmt.Sprintf("field(offset=%d,type=%s,required=%v,transform=%s)",
			f.Offset, typeFingerprint(f.Type), f.IsRequired, strings.Join(f.Transform, ","))
	case *schema.ArrayField:
		return fmt.Sprintf("array(offset=%d,count=%d,stride=%d,type=%s,required=%v,transform=%s)",
			f.Offset, f.Count, f.Stride, typeFingerprint(f.ItemType), f.IsRequired, strings.Join(f.Transform, ","))
	case *schema.PackedField:
		subs := make([]string, 0, len(f.SubFields))
		for _, sf := range f.SubFields {
			subs = append(subs, fmt.Sprintf("%s[%d:%d]enum=%s,transform=%s",
				sf.Name, sf.Start, sf.End, enumFingerprint(sf.Enum), strings.Join(sf.Transform, ",")))
		}
		return fmt.Sprintf("packed(offset=%d,count=%d,stride=%d,base=%d,required=%v,subs=%s)",
			f.Offset, f.Count, f.Stride, f.BaseBits, f.IsRequired, strings.Join(subs, ";"))
	case *schema.FieldGroup:
		members := make([]string, 0, len(f.Members))
		for _, m := range f.Members {
			members = append(members, m.Name+"="+fingerprintItem(m))
		}
		return fmt.Sprintf("group(required=%v,members=%s)", f.IsRequired, strings.Join(members, ";"))
	default:
		return fmt.Sprintf("unknown(%T)", item)
	}
}

// typeFingerprint includes type parameters (String.Length,
// Bitmap.Bits, Enum.Mapping) so a silent widening of a string field
// or a remapped enum is treated as a conflict, per spec §4.4.
func typeFingerprint(t datatype.Type) string {
	switch v := t.(type) {
	case datatype.Enum:
		keys := make([]int64, 0, len(v.Mapping))
		for k := range v.Mapping {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%d:%s", k, v.Mapping[k]))
		}
		return fmt.Sprintf("Enum(base=%s,mapping={%s})", typeFingerprint(v.Base), strings.Join(pairs, ","))
	default:
		return t.String()
	}
}

func enumFingerprint(mapping map[int64]string) string {
	if mapping == nil {
		return "-"
	}
	keys := make([]int64, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%d:%s", k, mapping[k]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}
