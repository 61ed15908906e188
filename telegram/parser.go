package telegram

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/services"
)

// Parser turns templated group posts into catalog content. Staff post
// messages starting with "Новый товар!" or "Новость!" and the listener
// feeds them here. Plain line-oriented parsing, nothing realtime about it.
type Parser struct {
	products   *services.ProductService
	news       *services.NewsService
	categories *services.CategoryService
}

func NewParser(products *services.ProductService, news *services.NewsService, categories *services.CategoryService) *Parser {
	return &Parser{products: products, news: news, categories: categories}
}

type ParsedProduct struct {
	Name           string
	Description    string
	Price          float64
	OldPrice       float64
	CategoryName   string
	Stock          int
	IsActive       bool
	IsFeatured     bool
	Specifications []services.ProductSpecificationInput
}

type ParsedNews struct {
	Title   string
	Content string
}

// HandleMessage applies whichever template matches. Returns true when the
// message produced catalog content.
func (p *Parser) HandleMessage(text string) bool {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "Новый товар!"):
		return p.createProduct(trimmed)
	case strings.HasPrefix(trimmed, "Новость!"):
		return p.createNews(trimmed)
	default:
		return false
	}
}

func (p *Parser) createProduct(text string) bool {
	parsed := ParseProduct(text)
	if parsed == nil {
		logger.Warn("не удалось распарсить товар из сообщения")
		return false
	}
	category, err := p.categories.FindByName(parsed.CategoryName)
	if err != nil {
		logger.Warn("категория не найдена, товар не будет создан",
			zap.String("category", parsed.CategoryName))
		return false
	}
	active := parsed.IsActive
	_, err = p.products.Create(services.ProductInput{
		Name:           parsed.Name,
		Description:    parsed.Description,
		Price:          parsed.Price,
		OldPrice:       parsed.OldPrice,
		Stock:          parsed.Stock,
		IsActive:       &active,
		IsFeatured:     parsed.IsFeatured,
		CategoryIDs:    []uint{category.ID},
		Specifications: parsed.Specifications,
	})
	if err != nil {
		logger.Error("ошибка при создании товара из Telegram сообщения", zap.Error(err))
		return false
	}
	logger.Info("товар создан из Telegram сообщения", zap.String("name", parsed.Name))
	return true
}

func (p *Parser) createNews(text string) bool {
	parsed := ParseNews(text)
	if parsed == nil {
		logger.Warn("не удалось распарсить новость из сообщения")
		return false
	}
	_, err := p.news.Create(services.NewsInput{
		Title:   parsed.Title,
		Content: parsed.Content,
	})
	if err != nil {
		logger.Error("ошибка при создании новости из Telegram сообщения", zap.Error(err))
		return false
	}
	logger.Info("новость создана из Telegram сообщения", zap.String("title", parsed.Title))
	return true
}

// ParseProduct parses the "Новый товар!" template:
//
//	Новый товар!
//	Название: ...
//	Описание: ...
//	Цена: ...
//	Старая цена: ... (опционально)
//	Категория: ...
//	Количество: ... (опционально)
//	Характеристики:
//	- название: значение
//
// Returns nil when a required field (name, price, category) is missing.
func ParseProduct(text string) *ParsedProduct {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return nil
	}

	product := ParsedProduct{IsActive: true}
	inSpecs := false

	for _, line := range lines[1:] {
		if strings.EqualFold(line, "характеристики:") || strings.EqualFold(line, "характеристики") {
			inSpecs = true
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		if inSpecs {
			product.Specifications = append(product.Specifications, services.ProductSpecificationInput{
				Name:  key,
				Value: value,
			})
			continue
		}

		switch strings.ToLower(key) {
		case "название":
			product.Name = value
		case "описание":
			product.Description = value
		case "цена":
			if price, ok := parsePrice(value); ok {
				product.Price = price
			}
		case "старая цена":
			if price, ok := parsePrice(value); ok {
				product.OldPrice = price
			}
		case "категория":
			product.CategoryName = value
		case "количество", "остаток", "stock":
			if stock, err := strconv.Atoi(value); err == nil {
				product.Stock = stock
			}
		case "активен", "isactive":
			product.IsActive = parseBool(value)
		case "рекомендуемый", "isfeatured":
			product.IsFeatured = parseBool(value)
		}
	}

	if product.Name == "" || product.Price == 0 || product.CategoryName == "" {
		return nil
	}
	return &product
}

// ParseNews parses the "Новость!" template. Lines that do not look like
// "ключ: значение" are folded into the content so multi-line news bodies
// survive.
func ParseNews(text string) *ParsedNews {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return nil
	}

	var news ParsedNews
	for _, line := range lines[1:] {
		key, value, ok := splitKeyValue(line)
		if ok {
			switch strings.ToLower(key) {
			case "заголовок":
				news.Title = value
				continue
			case "описание", "текст", "содержание", "content":
				news.Content = value
				continue
			}
		}
		switch {
		case news.Content != "":
			news.Content += "\n" + line
		case news.Title == "":
			news.Title = line
		default:
			news.Content = line
		}
	}

	if news.Title == "" || news.Content == "" {
		return nil
	}
	return &news
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitKeyValue(line string) (key, value string, ok bool) {
	line = strings.TrimLeft(line, "-• ")
	idx := strings.Index(line, ":")
	if idx <= 0 || idx == len(line)-1 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func parsePrice(value string) (float64, bool) {
	cleaned := strings.ToLower(value)
	for _, junk := range []string{"руб.", "руб", "₽", "р.", " "} {
		cleaned = strings.ReplaceAll(cleaned, junk, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

func parseBool(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "да" || v == "true" || v == "1"
}
