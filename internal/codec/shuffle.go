package codec

// shuffleBytes applies the byte shuffle filter: byte j of every element is
// grouped together, so the output is laid out as all byte 0s, then all
// byte 1s, and so on. Grouping similar byte positions improves the
// compression ratio of multi-byte numeric data.
func shuffleBytes(src []byte, elemSize int) []byte {
	if elemSize <= 1 {
		return src
	}

	numElems := len(src) / elemSize
	if numElems == 0 {
		return src
	}

	out := make([]byte, len(src))
	for i := 0; i < numElems; i++ {
		for j := 0; j < elemSize; j++ {
			out[j*numElems+i] = src[i*elemSize+j]
		}
	}
	// Bytes past the last complete element are carried over verbatim.
	copy(out[numElems*elemSize:], src[numElems*elemSize:])
	return out
}

// unshuffleBytes reverses the byte shuffle, gathering grouped byte
// positions back into contiguous elements.
func unshuffleBytes(src []byte, elemSize int) []byte {
	if elemSize <= 1 {
		return src
	}

	numElems := len(src) / elemSize
	if numElems == 0 {
		return src
	}

	out := make([]byte, len(src))
	for i := 0; i < numElems; i++ {
		for j := 0; j < elemSize; j++ {
			out[i*elemSize+j] = src[j*numElems+i]
		}
	}
	copy(out[numElems*elemSize:], src[numElems*elemSize:])
	return out
}
