package kitty

// CombineDNA takes the bits of p1 where selector is set and the bits of p2
// where it is clear.
func CombineDNA(p1, p2, selector byte) byte {
	return (selector & p1) | (^selector & p2)
}

// BreedDNA combines two parent genomes byte by byte under selector.
func BreedDNA(p1, p2, selector DNA) DNA {
	var child DNA
	for i := range child {
		child[i] = CombineDNA(p1[i], p2[i], selector[i])
	}
	return child
}
