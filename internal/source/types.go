package source

// Path is a canonical, case-normalized file identifier. Two Paths are equal
// iff they refer to the same source file under the configured case policy.
type Path string

// CanonicalFn maps a raw file name to its canonical Path.
type CanonicalFn func(name string) Path

// HashFn produces an opaque identity token for a byte slice. The build driver
// uses it both for file content versions and for shape signatures.
type HashFn func(data []byte) string

// IdentityHash is the default HashFn: the token is the text itself.
func IdentityHash(data []byte) string {
	return string(data)
}

// DigestHash tokens are hex-encoded sha256 digests, for hosts that want
// fixed-size version tokens.
func DigestHash(data []byte) string {
	return Sum(data).String()
}
