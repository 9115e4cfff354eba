package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/alphabot-ai/boxshare/internal/client"
	"github.com/alphabot-ai/boxshare/internal/model"
)

var authors = []string{"alphabot", "betabot", "gammabot", "", "deltabot"}

var snippets = []struct {
	title string
	code  string
}{
	{"Hello, world", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello, world\")\n}"},
	{"FizzBuzz", "for i := 1; i <= 100; i++ {\n\tswitch {\n\tcase i%15 == 0:\n\t\tfmt.Println(\"FizzBuzz\")\n\tcase i%3 == 0:\n\t\tfmt.Println(\"Fizz\")\n\tcase i%5 == 0:\n\t\tfmt.Println(\"Buzz\")\n\tdefault:\n\t\tfmt.Println(i)\n\t}\n}"},
	{"Reverse a string", "func reverse(s string) string {\n\tr := []rune(s)\n\tfor i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {\n\t\tr[i], r[j] = r[j], r[i]\n\t}\n\treturn string(r)\n}"},
	{"Fan-in", "func merge(cs ...<-chan int) <-chan int {\n\tout := make(chan int)\n\tvar wg sync.WaitGroup\n\tfor _, c := range cs {\n\t\twg.Add(1)\n\t\tgo func(c <-chan int) {\n\t\t\tdefer wg.Done()\n\t\t\tfor v := range c {\n\t\t\t\tout <- v\n\t\t\t}\n\t\t}(c)\n\t}\n\tgo func() { wg.Wait(); close(out) }()\n\treturn out\n}"},
	{"Shell one-liner", "find . -name '*.go' | xargs wc -l | sort -n | tail -5"},
	{"SQL classic", "SELECT author, COUNT(*) AS boxes\nFROM boxes\nGROUP BY author\nORDER BY boxes DESC;"},
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "boxshare server URL")
	flags := flag.Int("flag", 1, "Number of seeded boxes to flag for moderation testing")
	flag.Parse()

	log.Infof("Seeding boxes at %s...", *baseURL)
	ctx := context.Background()
	c := client.New(*baseURL)

	var ids []string
	for _, s := range snippets {
		author := authors[rand.IntN(len(authors))]
		box, err := c.Upload(ctx, client.Upload{
			Title:  s.title,
			Author: author,
			Type:   model.TypeCode,
			Code:   s.code,
		})
		if err != nil {
			log.Warnf("✗ Failed to share %q: %v", s.title, err)
			continue
		}
		ids = append(ids, box.ID)
		log.Infof("✓ Shared box %s: %s", box.ID, s.title)

		// Small delay to spread out createdAt times
		time.Sleep(50 * time.Millisecond)
	}

	flagged := 0
	for _, id := range ids {
		if flagged >= *flags {
			break
		}
		if err := c.Flag(ctx, id); err != nil {
			log.Warnf("✗ Failed to flag %s: %v", id, err)
			continue
		}
		flagged++
	}
	log.Infof("✓ Flagged %d boxes", flagged)

	stats, err := c.Stats(ctx)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Boxes:     %d\n", stats.Total)
	fmt.Printf("Available: %d\n", stats.Available)
	fmt.Println("\nOpen one at:", *baseURL+"/api/box")
}
