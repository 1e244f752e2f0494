package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"electrocart_back_end/internal/apperr"
)

// ProductInput champs fournis par l'admin; nil = non fourni.
type ProductInput struct {
	Name          *string
	Slug          *string
	Description   *string
	Category      *string
	Price         *float64
	OriginalPrice *float64
	Stock         *int
	Featured      *bool
	Rating        *float64
	// Images chemins déjà hébergés (tableau JSON ou champ `images` du formulaire)
	Images []string
}

// ParseProductFields convertit un corps JSON ou un formulaire multipart (valeurs texte)
// en ProductInput. Les nombres sont acceptés sous forme numérique ou textuelle.
func ParseProductFields(raw map[string]any) (ProductInput, error) {
	var in ProductInput
	var err error

	str := func(key string) *string {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		return &s
	}

	in.Name = str("name")
	in.Slug = str("slug")
	in.Description = str("description")
	in.Category = str("category")

	if in.Price, err = number(raw, "price"); err != nil {
		return in, err
	}
	if in.Price != nil && *in.Price < 0 {
		return in, apperr.Validation("Price must be >= 0")
	}
	if in.OriginalPrice, err = number(raw, "originalPrice"); err != nil {
		return in, err
	}
	if in.Rating, err = number(raw, "rating"); err != nil {
		return in, err
	}

	stock, err := number(raw, "stock")
	if err != nil {
		return in, err
	}
	if stock == nil {
		stock, err = number(raw, "countInStock")
		if err != nil {
			return in, err
		}
	}
	if stock != nil {
		if *stock < 0 || *stock != math.Trunc(*stock) {
			return in, apperr.Validation("Stock must be a non-negative integer")
		}
		n := int(*stock)
		in.Stock = &n
	}

	if v, ok := raw["featured"]; ok && v != nil {
		f := v == true || strings.EqualFold(fmt.Sprint(v), "true")
		in.Featured = &f
	}

	if in.Images, err = stringList(raw["images"]); err != nil {
		return in, apperr.Validation("images must be an array of paths")
	}
	return in, nil
}

// number lit un champ numérique; "" est traité comme absent.
func number(raw map[string]any, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case int:
		f := float64(n)
		return &f, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("%s must be a number", key))
		}
		return &f, nil
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation(fmt.Sprintf("%s must be a number", key))
	}
	return &f, nil
}

// stringList accepte un tableau JSON, une chaîne JSON `["a","b"]`, une liste CSV ou une valeur seule.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return compact(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected %T in list", item)
			}
			out = append(out, s)
		}
		return compact(out), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "[") {
			var out []string
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return compact(out), nil
		}
		return compact(strings.Split(s, ",")), nil
	}
	return nil, fmt.Errorf("unexpected %T", v)
}

// ParseNameList sert pour deleteImages (JSON ou CSV).
func ParseNameList(v any) ([]string, error) {
	return stringList(v)
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
