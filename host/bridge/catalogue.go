package bridge

// defaultEntries is the literal forwarder table this runtime ships with,
// grounded on the embedded contract host's vec/map/bytes/address/integer
// object surface (spec.md §9's auto-generated-catalogue design note). A
// from-scratch embedded host binding would extend this table rather than
// replace it: Entries() and Forward() are indifferent to its size.
var defaultEntries = []Entry{
	{Module: "v", Name: "vec_new", ArgKinds: nil, RetKind: KindVec},
	{Module: "v", Name: "vec_push_back", ArgKinds: []Kind{KindVec, KindRawVal}, RetKind: KindVec},
	{Module: "v", Name: "vec_get", ArgKinds: []Kind{KindVec, KindI64}, RetKind: KindRawVal},
	{Module: "v", Name: "vec_len", ArgKinds: []Kind{KindVec}, RetKind: KindI64},

	{Module: "m", Name: "map_new", ArgKinds: nil, RetKind: KindMap},
	{Module: "m", Name: "map_put", ArgKinds: []Kind{KindMap, KindRawVal, KindRawVal}, RetKind: KindMap},
	{Module: "m", Name: "map_get", ArgKinds: []Kind{KindMap, KindRawVal}, RetKind: KindRawVal},
	{Module: "m", Name: "map_len", ArgKinds: []Kind{KindMap}, RetKind: KindI64},

	{Module: "b", Name: "bytes_new", ArgKinds: nil, RetKind: KindBytes},
	{Module: "b", Name: "bytes_push", ArgKinds: []Kind{KindBytes, KindI64}, RetKind: KindBytes},
	{Module: "b", Name: "bytes_len", ArgKinds: []Kind{KindBytes}, RetKind: KindI64},

	{Module: "a", Name: "address_from_u64", ArgKinds: []Kind{KindU64}, RetKind: KindAddress},
	{Module: "a", Name: "address_to_u64", ArgKinds: []Kind{KindAddress}, RetKind: KindU64},

	{Module: "i", Name: "obj_from_i128_pieces", ArgKinds: []Kind{KindI64, KindI64}, RetKind: KindI128},
	{Module: "i", Name: "i128_hi", ArgKinds: []Kind{KindI128}, RetKind: KindI64},
	{Module: "i", Name: "i128_lo", ArgKinds: []Kind{KindI128}, RetKind: KindI64},
	{Module: "i", Name: "obj_from_i64", ArgKinds: []Kind{KindI64}, RetKind: KindRawVal},
	{Module: "i", Name: "obj_to_i64", ArgKinds: []Kind{KindRawVal}, RetKind: KindI64},

	{Module: "l", Name: "duration_from_u64", ArgKinds: []Kind{KindU64}, RetKind: KindDuration},
	{Module: "l", Name: "timepoint_from_u64", ArgKinds: []Kind{KindU64}, RetKind: KindTimepoint},
}

// DefaultCatalogue returns the default Catalogue, keyed by (module, name).
func DefaultCatalogue() Catalogue {
	cat := make(Catalogue, len(defaultEntries))
	for _, e := range defaultEntries {
		cat[[2]string{e.Module, e.Name}] = e
	}
	return cat
}
