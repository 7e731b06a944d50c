package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	pdf "github.com/dslipak/pdf"
	"github.com/joho/godotenv"
	"golang.org/x/net/html"

	"github.com/josinaldojr/workersai-rag/internal/ai"
	"github.com/josinaldojr/workersai-rag/internal/config"
	"github.com/josinaldojr/workersai-rag/internal/rag"
	"github.com/josinaldojr/workersai-rag/internal/vector"
)

func main() {
	_ = godotenv.Load()

	pathFlag := flag.String("path", "", "arquivo local para ingerir (.md/.txt/.html/.pdf)")
	urlFlag := flag.String("url", "", "URL para baixar e ingerir")
	workersFlag := flag.Int("workers", 0, "chunks processados em paralelo (default: INGEST_WORKERS)")
	flag.Parse()

	if *pathFlag == "" && *urlFlag == "" {
		log.Fatal("use --path ou --url")
	}

	ctx := context.Background()
	cfg := config.Load()

	aiClient, err := ai.NewClient(cfg.AccountID, cfg.APIToken)
	if err != nil {
		log.Fatalf("erro ao iniciar Workers AI: %v", err)
	}

	store, err := vector.NewClient(cfg.QdrantAddr, cfg.QdrantAPIKey)
	if err != nil {
		log.Fatalf("erro ao conectar no qdrant: %v", err)
	}
	defer store.Close()

	workers := cfg.IngestWorkers
	if *workersFlag > 0 {
		workers = *workersFlag
	}

	svc := rag.NewService(store, aiClient, aiClient, cfg.Collection, rag.Workers(workers))

	var content string
	if *pathFlag != "" {
		content, err = readLocalFile(*pathFlag)
	} else {
		content, err = fetchURL(ctx, *urlFlag)
	}
	if err != nil {
		log.Fatalf("erro lendo documento: %v", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		log.Fatal("documento vazio, nada para ingerir")
	}

	aid, err := svc.Ingest(ctx, content)
	if err != nil {
		log.Fatalf("erro na ingestão: %v", err)
	}

	log.Printf("✅ %d bytes ingeridos na collection %q", len(content), cfg.Collection)
	fmt.Println(aid)
}

func readLocalFile(path string) (string, error) {
	lpath := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lpath, ".pdf"):
		return extractTextFromPDF(path)

	case strings.HasSuffix(lpath, ".html") || strings.HasSuffix(lpath, ".htm"):
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return extractMainText(string(data)), nil

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func fetchURL(ctx context.Context, rawURL string) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d em %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/html") {
		return extractMainText(string(body)), nil
	}
	return string(body), nil
}

// Block-level elements end a paragraph. The blank line between them is
// what the ingest chunker splits on.
var blockElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "li": true, "pre": true, "blockquote": true,
	"td": true,
}

func extractMainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		p := strings.TrimSpace(current.String())
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			flush()
		}
	}
	walk(doc, false)
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func extractTextFromPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}
