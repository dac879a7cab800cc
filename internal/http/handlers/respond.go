package handlers

import "github.com/gin-gonic/gin"

// Fail attaches a domain error to the request and stops the chain. The
// error middleware renders it; handler bodies never write error JSON.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}
