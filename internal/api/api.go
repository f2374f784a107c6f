// Package api exposes one typed method per REST endpoint of the course
// marketplace. Everything goes through client.Client, so auth headers, timeouts
// and error normalization are uniform.
package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

type API struct {
	c *client.Client
}

func New(c *client.Client) *API {
	return &API{c: c}
}

func (a *API) Client() *client.Client { return a.c }

func id(v int64) string { return strconv.FormatInt(v, 10) }

func path(parts ...string) string {
	return strings.Join(parts, "/") + "/"
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func attachFile(mp *client.Multipart, field string, f *domain.File) {
	if f == nil || len(f.Data) == 0 {
		return
	}
	name := f.Name
	if name == "" {
		name = field
	}
	mp.File(field, name, f.ContentType, f.Data)
}
