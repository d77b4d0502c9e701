// export-generator writes a synthetic "copy as fetch" export, handy for
// trying the comparison pipeline without a real browser capture.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

func main() {
	output := flag.String("output", "export.txt", "Output file path")
	base := flag.String("base", "https://api.example.com", "Base URL for generated calls")
	count := flag.Int("count", 20, "Number of fetch calls to generate")
	seed := flag.Int64("seed", 0, "Random seed (0 = nondeterministic)")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	var sb strings.Builder
	for i := 0; i < *count; i++ {
		switch rng.Intn(3) {
		case 0:
			writeGetUser(&sb, *base, rng)
		case 1:
			writeCreateOrder(&sb, *base, rng)
		default:
			writeHealth(&sb, *base)
		}
	}

	if err := os.WriteFile(*output, []byte(sb.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write export: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d fetch call(s) to %s\n", *count, *output)
}

func writeGetUser(sb *strings.Builder, base string, rng *rand.Rand) {
	fmt.Fprintf(sb, `fetch("%s/users/%d?expand=profile", {
  "headers": {
    "accept": "application/json",
    "access-token": "tok-%08x"
  },
  "method": "GET",
  "body": null
});

`, base, rng.Intn(1000), rng.Uint32())
}

func writeCreateOrder(sb *strings.Builder, base string, rng *rand.Rand) {
	fmt.Fprintf(sb, `fetch("%s/orders", {
  "headers": {
    "accept": "application/json",
    "content-type": "application/json"
  },
  "method": "POST",
  "body": "{\"user_id\":%d,\"items\":[%d,%d]}"
});

`, base, rng.Intn(1000), rng.Intn(100), rng.Intn(100))
}

func writeHealth(sb *strings.Builder, base string) {
	fmt.Fprintf(sb, `fetch("%s/health", {
  "method": "GET"
});

`, base)
}
