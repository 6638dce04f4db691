package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

var (
	debug      = flag.Bool("debug", false, "Print every entry and additional debug information if set.")
	input      = flag.String("in", "", "Ledger export to summarize (.xlsx or .csv).")
	output     = flag.String("out", "", "Report file to write (.xlsx or .csv). Defaults to <in>_resumen.xlsx.")
	configDir  = flag.String("conf", os.Getenv("HOME")+"/.asientos", "Config directory holding config.yaml, categories.yaml and .env.")
	profile    = flag.String("profile", "", "Apply the flag values of this profile from config.yaml.")
	categories = flag.String("categories", "", "Categories YAML file. Defaults to <conf>/categories.yaml when present, else the built-in version.")
	version    = flag.String("version", defaultSpecVersion, "Built-in category version to use when no categories file applies (rm-2025, rm-legacy).")
	dateFormat = flag.String("date", "02/01/2006",
		"Express the text date format of the export w.r.t. Jan 02, 2006. Excel date cells need no format. See: https://golang.org/pkg/time/")
	comma      = flag.String("comma", ",", "Field separator for CSV input.")
	hints      = flag.Bool("hints", true, "Suggest categories for unclassified line items, learned from classified ones of this and earlier runs (<conf>/hints.db).")
	aiReviewOn = flag.Bool("ai-review", false, "Ask Claude for category suggestions for unclassified line items.")
	openOut    = flag.Bool("open", false, "Offer to open the generated file when done.")
	initSpec   = flag.Bool("init", false, "Write the selected categories to <conf>/categories.yaml and exit.")
)

type configs struct {
	Profiles map[string]map[string]string `yaml:"profiles"` // profile and the corresponding flags.
	AI       struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
}

func readConfigs(dir string) (configs, error) {
	var c configs
	configPath := path.Join(dir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrapf(err, "unable to read config at %v", configPath)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "unable to unmarshal yaml config at %v", configPath)
	}
	return c, nil
}

// applyProfile sets the profile's flag values, except for flags given
// explicitly on the command line.
func applyProfile(c configs, name string) error {
	ac, has := c.Profiles[name]
	if !has {
		return errors.Errorf("profile %q not found in config.yaml", name)
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	for k, v := range ac {
		if explicit[k] {
			continue
		}
		if err := flag.Set(k, v); err != nil {
			return errors.Wrapf(err, "profile %q: flag %q", name, k)
		}
	}
	return nil
}

// selectSpec picks, in order: -categories, <conf>/categories.yaml, the
// built-in -version.
func selectSpec(file, dir, ver string) (*CategorySpec, string, error) {
	if len(file) > 0 {
		s, err := loadCategorySpec(file)
		return s, file, err
	}
	def := path.Join(dir, "categories.yaml")
	if _, err := os.Stat(def); err == nil {
		s, err := loadCategorySpec(def)
		return s, def, err
	}
	s, err := builtinSpec(ver)
	return s, "built-in " + ver, err
}

func defaultOutput(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_resumen.xlsx"
}

func main() {
	flag.Parse()

	checkf(os.MkdirAll(*configDir, 0o755), "Unable to create directory: %v", *configDir)
	if err := godotenv.Load(path.Join(*configDir, ".env")); err != nil && !os.IsNotExist(errors.Cause(err)) {
		log.Printf("Warning: unable to load .env: %v", err)
	}

	c, err := readConfigs(*configDir)
	checkf(err, "Unable to load configuration")
	if len(*profile) > 0 {
		checkf(applyProfile(c, *profile), "Unable to apply profile")
		fmt.Printf("Using flags from profile %q: %+v\n", *profile, c.Profiles[*profile])
	}

	spec, source, err := selectSpec(*categories, *configDir, *version)
	checkf(err, "Unable to load categories")
	if *debug {
		fmt.Printf("[Categories] %s from %s: %s\n", spec.Version, source, strings.Join(spec.Names(), ", "))
	}

	if *initSpec {
		dst := path.Join(*configDir, "categories.yaml")
		checkf(spec.Persist(dst), "Unable to write categories")
		fmt.Printf("Categories %s written to %s\n", spec.Version, dst)
		return
	}

	if len(*input) == 0 {
		oerr("Please specify the ledger export with the -in flag")
		return
	}
	if len(*output) == 0 {
		*output = defaultOutput(*input)
		fmt.Printf("Output file not specified, using: %s\n", *output)
	}
	seps := []rune(*comma)
	assertf(len(seps) == 1, "Expected a single character for -comma, got %q", *comma)

	res, err := transform(*input, *output, transformOptions{
		Spec:        spec,
		DateLayouts: []string{*dateFormat},
		Comma:       seps[0],
		RunID:       uuid.NewString(),
	})
	checkf(err, "Unable to transform %v", *input)
	printRun(os.Stdout, res, *debug)

	pending := unclassified(res.Items, spec)
	if *hints {
		learned, err := learnFrom(path.Join(*configDir, "hints.db"), res.Items, spec)
		if err != nil {
			log.Printf("Warning: %v. Hints learn from this run only.", err)
			learned = learnedTerms(res.Items, spec)
		}
		if len(pending) > 0 {
			printHints(os.Stdout, bayesHints(res.Items, spec, learned))
		}
	}
	if *aiReviewOn && len(pending) > 0 {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if len(c.AI.APIKey) > 0 {
			apiKey = c.AI.APIKey
		}
		ai, err := aiReview(context.Background(), apiKey, c.AI.Model, pending, spec)
		if err != nil {
			// The report is already written; a failed review only loses hints.
			color.New(color.FgRed).Printf("AI review failed: %v\n", err)
		} else {
			printHints(os.Stdout, ai)
		}
	}

	if *openOut {
		offerOpen(res.Output)
	}
}
