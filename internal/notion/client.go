package notion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/sirupsen/logrus"

	"github.com/hs-ru/pagesync/internal/config"
	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

// maxTextLength is the Notion limit for a single rich text object
const maxTextLength = 2000

const (
	createAttempts = 3
	titleProperty  = "Name"

	// maxBlocksPerRequest is the Notion limit for children sent in one request
	maxBlocksPerRequest = 100
)

// Client publishes translated pages to Notion. Each act gets an inline
// database under the parent page; each page becomes a row titled with its number.
type Client struct {
	client     NotionClient
	parentID   notionapi.PageID
	parentType notionapi.ParentType
	retryDelay time.Duration
	log        *logrus.Entry
}

// New creates a new Notion client
func New(cfg config.Notion) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion api key is not set")
	}
	if cfg.ParentPageID == "" {
		return nil, fmt.Errorf("notion parent page id is not set")
	}

	notionClient := notionapi.NewClient(notionapi.Token(cfg.APIKey))
	return NewWithClient(newNotionClientAdapter(notionClient), cfg.ParentPageID, time.Second), nil
}

// NewWithClient creates a client over an existing NotionClient
func NewWithClient(nc NotionClient, parentPageID string, retryDelay time.Duration) *Client {
	return &Client{
		client:     nc,
		parentID:   notionapi.PageID(parentPageID),
		parentType: "page_id",
		retryDelay: retryDelay,
		log:        logger.WithComponent("notion"),
	}
}

// Publish creates or updates the Notion page mirroring a translated page
func (c *Client) Publish(ctx context.Context, ref models.PageRef, rec models.Record) error {
	c.log.WithFields(map[string]interface{}{
		"page": ref.Number,
		"act":  ref.Act,
	}).Debug("Publishing page")

	if ref.Act == "" {
		return errors.New("page has no act")
	}

	db, err := c.actDatabase(ctx, ref.Act)
	if err != nil {
		return fmt.Errorf("failed to prepare act database: %w", err)
	}

	existing, err := c.findPage(ctx, notionapi.DatabaseID(db.ID), ref.Number)
	if err != nil {
		return err
	}

	properties := pageProperties(ref.Number, rec)
	blocks := convertMarkdownToBlocks(parser.ConvertToMarkdown(ref.Number, rec))

	if existing != nil {
		_, err := c.client.Page().Update(ctx, notionapi.PageID(existing.ID), &notionapi.PageUpdateRequest{
			Properties: properties,
		})
		if err != nil {
			return fmt.Errorf("failed to update page %s: %w", ref.Number, err)
		}
		if err := c.replaceContent(ctx, notionapi.BlockID(existing.ID), blocks); err != nil {
			return fmt.Errorf("failed to replace content of page %s: %w", ref.Number, err)
		}
		c.log.WithField("page", ref.Number).Info("Updated Notion page")
		return nil
	}

	first := blocks[:min(len(blocks), maxBlocksPerRequest)]
	pageParams := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       "database_id",
			DatabaseID: notionapi.DatabaseID(db.ID),
		},
		Properties: properties,
		Children:   first,
	}

	var page *notionapi.Page
	for i := 0; i < createAttempts; i++ {
		if i > 0 {
			time.Sleep(c.retryDelay)
		}
		page, err = c.client.Page().Create(ctx, pageParams)
		if err == nil {
			break
		}
		c.log.WithError(err).WithField("attempt", i+1).Warn("Failed to create Notion page")
	}
	if err != nil {
		return fmt.Errorf("failed to create page %s after %d attempts: %w", ref.Number, createAttempts, err)
	}

	if err := c.appendBlocks(ctx, notionapi.BlockID(page.ID), blocks[len(first):]); err != nil {
		return fmt.Errorf("failed to append content of page %s: %w", ref.Number, err)
	}

	c.log.WithFields(map[string]interface{}{
		"page": ref.Number,
		"act":  ref.Act,
	}).Info("Created Notion page")
	return nil
}

// actDatabase returns the database for act, creating it if it doesn't exist
func (c *Client) actDatabase(ctx context.Context, act string) (*notionapi.Database, error) {
	query := &notionapi.SearchRequest{
		Query: act,
		Filter: notionapi.SearchFilter{
			Property: "object",
			Value:    "database",
		},
	}

	results, err := c.client.Search().Do(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search for existing database: %w", err)
	}

	for _, result := range results.Results {
		if db, ok := result.(*notionapi.Database); ok && plainText(db.Title) == act {
			return db, nil
		}
	}

	dbParams := &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   c.parentType,
			PageID: c.parentID,
		},
		Title: richText(act),
		Properties: notionapi.PropertyConfigs{
			titleProperty: notionapi.TitlePropertyConfig{
				Type:  "title",
				Title: struct{}{},
			},
			"Caption": notionapi.RichTextPropertyConfig{
				Type:     "rich_text",
				RichText: struct{}{},
			},
			"Created": notionapi.RichTextPropertyConfig{
				Type:     "rich_text",
				RichText: struct{}{},
			},
		},
		IsInline: true,
	}

	db, err := c.client.Database().Create(ctx, dbParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	c.log.WithField("act", act).Info("Created act database")
	return db, nil
}

// findPage looks up the row titled number in a database
func (c *Client) findPage(ctx context.Context, dbID notionapi.DatabaseID, number string) (*notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{}
	for {
		resp, err := c.client.Database().Query(ctx, dbID, req)
		if err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}

		for i := range resp.Results {
			if pageTitle(resp.Results[i]) == number {
				return &resp.Results[i], nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nil, nil
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
	}
}

// replaceContent deletes every child block of a page and appends blocks instead
func (c *Client) replaceContent(ctx context.Context, id notionapi.BlockID, blocks []notionapi.Block) error {
	var old []notionapi.BlockID
	pagination := &notionapi.Pagination{PageSize: maxBlocksPerRequest}
	for {
		resp, err := c.client.Block().GetChildren(ctx, id, pagination)
		if err != nil {
			return fmt.Errorf("failed to list blocks: %w", err)
		}
		for _, block := range resp.Results {
			old = append(old, block.GetID())
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		pagination = &notionapi.Pagination{
			StartCursor: notionapi.Cursor(resp.NextCursor),
			PageSize:    maxBlocksPerRequest,
		}
	}

	for _, blockID := range old {
		if _, err := c.client.Block().Delete(ctx, blockID); err != nil {
			return fmt.Errorf("failed to delete block %s: %w", blockID, err)
		}
	}

	c.log.WithFields(map[string]interface{}{
		"deleted": len(old),
		"added":   len(blocks),
	}).Debug("Replacing page content")
	return c.appendBlocks(ctx, id, blocks)
}

// appendBlocks adds blocks to a page in batches within the request limit
func (c *Client) appendBlocks(ctx context.Context, id notionapi.BlockID, blocks []notionapi.Block) error {
	for start := 0; start < len(blocks); start += maxBlocksPerRequest {
		end := min(start+maxBlocksPerRequest, len(blocks))
		_, err := c.client.Block().AppendChildren(ctx, id, &notionapi.AppendBlockChildrenRequest{
			Children: blocks[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to append blocks: %w", err)
		}
	}
	return nil
}

func pageProperties(number string, rec models.Record) notionapi.Properties {
	return notionapi.Properties{
		titleProperty: notionapi.TitleProperty{
			Title: richText(number),
		},
		"Caption": notionapi.RichTextProperty{
			RichText: richText(rec.Caption),
		},
		"Created": notionapi.RichTextProperty{
			RichText: richText(rec.Created),
		},
	}
}

func pageTitle(page notionapi.Page) string {
	switch p := page.Properties[titleProperty].(type) {
	case *notionapi.TitleProperty:
		return plainText(p.Title)
	case notionapi.TitleProperty:
		return plainText(p.Title)
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, t := range rt {
		if t.Text != nil {
			sb.WriteString(t.Text.Content)
		} else {
			sb.WriteString(t.PlainText)
		}
	}
	return sb.String()
}

// richText splits text into rich text objects within the length limit
func richText(text string) []notionapi.RichText {
	runes := []rune(text)
	if len(runes) == 0 {
		return []notionapi.RichText{}
	}

	var result []notionapi.RichText
	for start := 0; start < len(runes); start += maxTextLength {
		end := min(start+maxTextLength, len(runes))
		result = append(result, notionapi.RichText{
			Text: &notionapi.Text{
				Content: string(runes[start:end]),
			},
		})
	}
	return result
}

// convertMarkdownToBlocks converts markdown content to Notion blocks
func convertMarkdownToBlocks(content string) []notionapi.Block {
	var blocks []notionapi.Block

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "---" {
			continue
		}

		if strings.HasPrefix(line, "# ") {
			blocks = append(blocks, createHeadingBlock(line[2:]))
			continue
		}

		if strings.HasPrefix(line, "- ") {
			blocks = append(blocks, createBulletedListBlock(line[2:]))
			continue
		}

		blocks = append(blocks, createParagraphBlock(line))
	}

	return blocks
}

// createHeadingBlock creates a top level heading block
func createHeadingBlock(text string) notionapi.Block {
	return &notionapi.Heading1Block{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   notionapi.BlockTypeHeading1,
		},
		Heading1: notionapi.Heading{
			RichText: richText(text),
		},
	}
}

// createBulletedListBlock creates a bulleted list item block
func createBulletedListBlock(text string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{
			RichText: richText(text),
		},
	}
}

// createParagraphBlock creates a paragraph block
func createParagraphBlock(text string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: richText(text),
		},
	}
}
