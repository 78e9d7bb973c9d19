// Package witmap exports parsed C layouts as WebAssembly component model
// (WIT) type definitions.
//
// Structs become records, enums become enums and arrays become lists.
// Unions have no WIT counterpart and are exported as their raw bytes:
//
//	m := witmap.New()
//	if _, err := m.Composite(def, ""); err != nil {
//		return err
//	}
//	fmt.Print(witmap.Render(m.TypeDefs()))
package witmap
