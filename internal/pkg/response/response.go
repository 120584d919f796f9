package response

import "github.com/gin-gonic/gin"

// Every response carries a success flag; failures additionally carry a
// stable numeric code and a human-readable message. Internal error details
// are never exposed to callers.

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, gin.H{"success": false, "code": code, "message": message})
}
