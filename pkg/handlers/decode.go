package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

func jsonDecoder(c *gin.Context) *json.Decoder {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	return dec
}
