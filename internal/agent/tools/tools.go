package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// The closed set of tools the model may call. Dispatch is a switch over
// these names with typed argument structs; there is no runtime registry.
const (
	ToolSearchProductsVectorized = "search_products_vectorized"
	ToolGetProductsByIDs         = "get_products_by_ids"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 15
)

// SearchProductsArgs are the arguments of the vectorized search tool.
type SearchProductsArgs struct {
	Query                string `json:"query"`
	Limit                int    `json:"limit,omitempty"`
	PriceLowerLimit      *int   `json:"price_lower_limit,omitempty"`
	PriceUpperLimit      *int   `json:"price_upper_limit,omitempty"`
	SortAscendingByPrice bool   `json:"sort_ascending_by_price,omitempty"`
}

// GetProductsByIDsArgs are the arguments of the batch-by-id lookup tool.
type GetProductsByIDsArgs struct {
	ProductIDs []ProductID `json:"product_ids"`
}

// ProductID decodes from either a JSON number or a numeric string, since
// models are not consistent about which one they emit.
type ProductID uint64

func (p *ProductID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(b)), `"`))
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("product id %q is not an unsigned integer", s)
	}
	*p = ProductID(v)
	return nil
}

// DecodeSearchArgs validates and decodes the raw JSON arguments of the
// vectorized search tool. A missing or blank query is a schema violation;
// an inverted price range is a data-quality problem and drops the filter.
func DecodeSearchArgs(raw string) (*SearchProductsArgs, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, errx.WrapSchema(fmt.Errorf("%s: %w", ToolSearchProductsVectorized, err))
	}
	if _, ok := fields["query"]; !ok {
		return nil, errx.WrapSchema(fmt.Errorf("%s: missing required argument %q", ToolSearchProductsVectorized, "query"))
	}

	var args SearchProductsArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, errx.WrapSchema(fmt.Errorf("%s: %w", ToolSearchProductsVectorized, err))
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, errx.WrapSchema(fmt.Errorf("%s: argument %q is empty", ToolSearchProductsVectorized, "query"))
	}

	if args.Limit <= 0 {
		args.Limit = defaultSearchLimit
	}
	if args.Limit > maxSearchLimit {
		args.Limit = maxSearchLimit
	}

	if args.PriceLowerLimit != nil && args.PriceUpperLimit != nil && *args.PriceLowerLimit > *args.PriceUpperLimit {
		logx.Warn().
			Int("lower", *args.PriceLowerLimit).
			Int("upper", *args.PriceUpperLimit).
			Msg("inverted price range, dropping price filter")
		args.PriceLowerLimit = nil
		args.PriceUpperLimit = nil
	}

	return &args, nil
}

// DecodeLookupArgs validates and decodes the raw JSON arguments of the
// batch-by-id lookup tool.
func DecodeLookupArgs(raw string) (*GetProductsByIDsArgs, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, errx.WrapSchema(fmt.Errorf("%s: %w", ToolGetProductsByIDs, err))
	}
	if _, ok := fields["product_ids"]; !ok {
		return nil, errx.WrapSchema(fmt.Errorf("%s: missing required argument %q", ToolGetProductsByIDs, "product_ids"))
	}

	var args GetProductsByIDsArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, errx.WrapSchema(fmt.Errorf("%s: %w", ToolGetProductsByIDs, err))
	}
	if len(args.ProductIDs) == 0 {
		return nil, errx.WrapSchema(fmt.Errorf("%s: argument %q is empty", ToolGetProductsByIDs, "product_ids"))
	}
	return &args, nil
}

func objectFields(raw string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return fields, nil
}

// Infos declares both tools to the chat model.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolSearchProductsVectorized,
			Desc: "Search the product index by a free-text description and return the best matching products with their name, price, sale price, url and stock. Use this whenever the customer describes what they are looking for. Improve vague customer queries before calling.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Free-text product description, possibly improved by the assistant.",
					Required: true,
				},
				"limit": {
					Type: schema.Integer,
					Desc: "Maximum number of products to return (1-15, default 5).",
				},
				"price_lower_limit": {
					Type: schema.Integer,
					Desc: "Optional inclusive lower price bound.",
				},
				"price_upper_limit": {
					Type: schema.Integer,
					Desc: "Optional inclusive upper price bound.",
				},
				"sort_ascending_by_price": {
					Type: schema.Boolean,
					Desc: "Return the results ordered by ascending effective price instead of similarity.",
				},
			}),
		},
		{
			Name: ToolGetProductsByIDs,
			Desc: "Fetch current name and url for a list of product ids, typically ids returned by a previous vectorized search.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_ids": {
					Type:     schema.Array,
					Desc:     "Product ids to fetch.",
					ElemInfo: &schema.ParameterInfo{Type: schema.Integer},
					Required: true,
				},
			}),
		},
	}
}
