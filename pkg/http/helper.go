package http

import (
	"net/http"
	"strconv"

	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
)

func ExtractLimitOffset(r *http.Request, cfg *config.Config) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return cfg.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}
