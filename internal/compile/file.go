package compile

// File is one source file of a single program snapshot. A File is immutable
// once the program is constructed; a rebuild produces new File values.
type File struct {
	// Name is the file name as given by the host, before canonicalization.
	Name string
	// Text is the full source text.
	Text []byte
	// Shape summarizes the file's externally observable declarations in a
	// canonical order. Files with equal shapes are interchangeable for
	// downstream analysis.
	Shape []byte
	// Refs names the files this file directly references.
	Refs []string
	// Version is an opaque content identity token. When empty, the driver
	// derives one from Text with the host hash function.
	Version string
}
