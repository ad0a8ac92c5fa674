package client

import (
	"bricklink/taxonomy/internal/domain"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

var (
	catStringRegex = regexp.MustCompile(`catString=([0-9.]+)`)
	catTypeRegex   = regexp.MustCompile(`catType=([A-Za-z])`)
	itemTypeRegex  = regexp.MustCompile(`itemType=([^&]+)`)
	countRegex     = regexp.MustCompile(`^\s*\((\d+)\)`)
)

type catalogParser struct {
	baseURL string
}

func newCatalogParser(baseURL string) *catalogParser {
	return &catalogParser{
		baseURL: baseURL,
	}
}

// ParseCatalogTree reads every subcategory link on a catalogTree.asp page and
// builds the category tree from their dotted catString ids.
func (p *catalogParser) ParseCatalogTree(page string, categoryType domain.CategoryType) (domain.CategoryTreeMap, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	infos := make([]domain.CategoryInfo, 0)
	doc.Find("a[href*='catalogList.asp'][href*='catString=']").Each(func(i int, link *goquery.Selection) {
		href, exists := link.Attr("href")
		if !exists {
			return
		}

		if m := catTypeRegex.FindStringSubmatch(href); len(m) > 1 && !strings.EqualFold(m[1], categoryType.String()) {
			return
		}

		matches := catStringRegex.FindStringSubmatch(href)
		if len(matches) < 2 {
			return
		}
		id := strings.Trim(matches[1], ".")
		name := strings.TrimSpace(link.Text())
		if id == "" || name == "" {
			return
		}

		infos = append(infos, domain.CategoryInfo{
			Name:       name,
			URL:        p.absoluteURL(href),
			Count:      followingCount(link),
			CategoryID: id,
			ItemType:   categoryType.String(),
		})
	})

	if len(infos) == 0 {
		log.Warnf("No categories found on tree page for %s", categoryType.GetCategoryName())
		return nil, fmt.Errorf("no categories found for %s", categoryType)
	}

	log.Debugf("Parsed %d categories for %s", len(infos), categoryType)
	return domain.BuildTree(infos), nil
}

// followingCount reads the "(123)" item count printed right after a category link.
func followingCount(link *goquery.Selection) int {
	if len(link.Nodes) == 0 {
		return 0
	}
	for sib := link.Nodes[0].NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.TextNode {
			return 0
		}
		text := strings.ReplaceAll(sib.Data, "\u00a0", " ")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m := countRegex.FindStringSubmatch(text); len(m) > 1 {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
		return 0
	}
	return 0
}

func (p *catalogParser) extractSubcategoryHierarchy(doc *goquery.Document) domain.SubcategoryHierarchy {
	var subcategories []domain.SubcategoryInfo
	var pathParts []string

	// The breadcrumb sits in a grey cell starting with "Catalog:"
	doc.Find("td[style*='background-color: #eeeeee'], td[bgcolor='#eeeeee']").EachWithBreak(func(i int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if !strings.HasPrefix(text, "Catalog:") {
			return true
		}

		td.Find("a[href*='catalog.asp'], a[href*='catalogTree.asp'], a[href*='catalogList.asp']").Each(func(j int, link *goquery.Selection) {
			href, exists := link.Attr("href")
			name := strings.TrimSpace(link.Text())
			if !exists || name == "" || name == "Catalog" {
				return
			}

			var id string
			if m := itemTypeRegex.FindStringSubmatch(href); len(m) > 1 {
				id = m[1]
			} else if m := catStringRegex.FindStringSubmatch(href); len(m) > 1 {
				id = strings.Trim(m[1], ".")
			}

			subcategories = append(subcategories, domain.SubcategoryInfo{
				Name: name,
				URL:  p.absoluteURL(href),
				ID:   id,
			})
			pathParts = append(pathParts, name)
		})
		return false
	})

	return domain.SubcategoryHierarchy{
		FullPath:      strings.Join(pathParts, ": "),
		Subcategories: subcategories,
	}
}

// ParseItemCategory extracts the category breadcrumb of a catalog item page.
func (p *catalogParser) ParseItemCategory(page, itemID string) (domain.SubcategoryHierarchy, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return domain.SubcategoryHierarchy{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	hierarchy := p.extractSubcategoryHierarchy(doc)
	if len(hierarchy.Subcategories) == 0 {
		return hierarchy, fmt.Errorf("no category breadcrumb found for item %s", itemID)
	}

	log.Debugf("Item %s sits in %s", itemID, hierarchy.FullPath)
	return hierarchy, nil
}

func (p *catalogParser) absoluteURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return p.baseURL + href
	default:
		return p.baseURL + "/" + href
	}
}
