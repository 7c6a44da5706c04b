package integrations_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/integrations"
)

func ExampleClient_Get() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[{"version":"60.0"}]`)
	}))
	defer srv.Close()

	c := integrations.NewClient(nil, "example", time.Hour, map[string]string{"Accept": "application/json"})

	var versions []struct{ Version string }
	if err := c.Get(context.Background(), srv.URL+"/services/data/", &versions); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(versions[0].Version)

	err := c.Get(context.Background(), srv.URL+"/missing", &versions)
	fmt.Println(errors.Is(err, integrations.ErrNotFound))
	// Output:
	// 60.0
	// true
}

func ExampleClient_Cached() {
	dir, err := os.MkdirTemp("", "integrations-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	c := integrations.NewClient(fc, "example", time.Hour, nil)

	calls := 0
	fetch := func(v *string) func() error {
		return func() error {
			calls++
			*v = "Account"
			return nil
		}
	}

	for range 2 {
		var name string
		_ = c.Cached(context.Background(), "sobject", false, &name, fetch(&name))
		fmt.Println(name)
	}
	fmt.Println("fetches:", calls)
	// Output:
	// Account
	// Account
	// fetches: 1
}
