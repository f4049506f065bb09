//go:build !debug_kheap

package heaputils

const (
	// DebugMargin is the number of bytes of debug data that should be placed between allocations
	// in heaps managed by this module
	DebugMargin int = 0
)

// WriteMagicValue writes an easy-to-identify marker across DebugMargin bytes at the provided offset
// into a view of heap memory. This method no-ops unless the debug_kheap build tag is present.
func WriteMagicValue(view []byte, offset int) {
}

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is still
// present. It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_kheap build tag is present.
func ValidateMagicValue(view []byte, offset int) bool {
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned.
// This method no-ops unless the debug_kheap build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if
// it is not. This method no-ops unless the debug_kheap build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
}
