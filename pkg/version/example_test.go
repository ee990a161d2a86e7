package version_test

import (
	"fmt"

	"github.com/matzehuels/uvm/pkg/version"
)

func ExampleParse() {
	v, err := version.Parse("2021.3.5f1 (40eb3a945986)")
	if err != nil {
		panic(err)
	}
	fmt.Println(v.String(), v.Type, v.Hash)
	// Output: 2021.3.5f1 final 40eb3a945986
}

func ExampleSort() {
	vs := []version.Version{
		version.MustParse("2017.1.3b1"),
		version.MustParse("2017.1.2p3"),
		version.MustParse("2017.1.2f3"),
	}
	version.Sort(vs)
	fmt.Println(vs)
	// Output: [2017.1.2f3 2017.1.2p3 2017.1.3b1]
}
