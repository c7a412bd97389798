package scope_test

import (
	"fmt"

	"github.com/go-quill/quill/pkg/runtime"
	"github.com/go-quill/quill/pkg/scope"
)

// This example shows the full lifecycle of a runtime, a scope, and a state
// handle: allocate, read, mutate, and tear down.
func ExampleUseState() {
	// One runtime per UI-tree instance.
	id := runtime.Create(runtime.Options{Name: "example"})

	// A root scope owns the state registered through it.
	root := scope.New(runtime.Default, id, nil)

	count := scope.UseState(root, 0)
	count.Set(count.Get() + 1)
	fmt.Printf("count: %d\n", count.Get())

	// Dropping the scope removes every handle it registered.
	root.Drop()
	runtime.DropRuntime(id)

	// Output:
	// count: 1
}

// This example builds a child scope per component render and projects a
// sub-field of a struct through a lens with an update hook.
func ExampleMap() {
	id := runtime.Create(runtime.Options{Name: "lens-example"})
	root := scope.New(runtime.Default, id, nil)

	type form struct {
		Name string
		Age  int
	}

	rerenders := 0
	scope.Child(root, nil, func(s *scope.Scope) any {
		f := scope.UseState(s, form{Name: "Ada", Age: 36})

		age := scope.Map(f,
			func(f *form) *int { return &f.Age },
			func(f *form) *int { return &f.Age },
			func() { rerenders++ },
		)
		age.Set(37)

		fmt.Printf("%s is %d\n", f.Get().Name, age.Get())
		return nil
	})

	fmt.Printf("re-renders scheduled: %d\n", rerenders)

	root.Drop()
	runtime.DropRuntime(id)

	// Output:
	// Ada is 37
	// re-renders scheduled: 1
}
