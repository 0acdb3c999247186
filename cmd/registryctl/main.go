// registryctl is a small operator CLI against the registry API: import a
// YAML bundle, list communities, or export a stored bundle back to a file.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/celine-eu/rec-registry/internal/util"
	"github.com/celine-eu/rec-registry/pkg/bundle"
)

func main() {
	util.LoadEnv()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: registryctl <import|list|export> [flags]")
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func authorize(req *http.Request) {
	if token := util.GetEnv("REGISTRY_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "YAML bundle file")
	api := fs.String("api", util.GetEnvString("REGISTRY_API", "http://localhost:8080/api"), "registry API base URL")
	dryRun := fs.Bool("dry-run", false, "validate without writing")
	policy := fs.String("policy", "", "resolution policy: strict or lenient")
	timeout := fs.Duration("timeout", 60*time.Second, "HTTP timeout")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("missing required flag: -file")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	raw, err := bundle.LoadYAML(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"bundle":  raw,
		"dry_run": *dryRun,
		"policy":  *policy,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, *api+"/admin/import", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	authorize(req)

	resp, err := newClient(*timeout).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("import failed [%d]: %s", resp.StatusCode, body)
	}
	fmt.Println(string(body))
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	api := fs.String("api", util.GetEnvString("REGISTRY_API", "http://localhost:8080/api"), "registry API base URL")
	query := fs.String("q", "", "filter by key or name substring")
	limit := fs.Int("limit", 200, "page size")
	timeout := fs.Duration("timeout", 30*time.Second, "HTTP timeout")
	fs.Parse(args)

	req, err := http.NewRequest(http.MethodGet, listURL(*api, *query, *limit), nil)
	if err != nil {
		return err
	}
	authorize(req)

	resp, err := newClient(*timeout).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("list failed [%d]: %s", resp.StatusCode, body)
	}

	var data struct {
		Graph []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"@graph"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}
	if len(data.Graph) == 0 {
		fmt.Println("No communities found.")
		return nil
	}
	for _, c := range data.Graph {
		fmt.Printf("- %s  %s\n", c.Key, c.Name)
	}
	return nil
}

// listURL builds the listing URL with the filter query escaped.
func listURL(api, query string, limit int) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if query != "" {
		params.Set("q", query)
	}
	return api + "/communities?" + params.Encode()
}

// exportURL builds the export URL with the community key escaped.
func exportURL(api, community string) string {
	params := url.Values{}
	params.Set("community", community)
	return api + "/admin/export?" + params.Encode()
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	api := fs.String("api", util.GetEnvString("REGISTRY_API", "http://localhost:8080/api"), "registry API base URL")
	community := fs.String("community", "", "community key")
	out := fs.String("out", "", "output file (default stdout)")
	timeout := fs.Duration("timeout", 30*time.Second, "HTTP timeout")
	fs.Parse(args)

	if *community == "" {
		return fmt.Errorf("missing required flag: -community")
	}
	req, err := http.NewRequest(http.MethodGet, exportURL(*api, *community), nil)
	if err != nil {
		return err
	}
	authorize(req)

	resp, err := newClient(*timeout).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("export failed [%d]: %s", resp.StatusCode, body)
	}

	if *out == "" {
		fmt.Print(string(body))
		return nil
	}
	return os.WriteFile(*out, body, 0o644)
}
