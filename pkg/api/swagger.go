package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gopkg.in/yaml.v2"
)

// SwaggerInfo holds the swagger specification info
var SwaggerInfo = struct {
	Version     string
	Host        string
	BasePath    string
	Title       string
	Description string
}{
	Version:     "1.0.0",
	Host:        "localhost:8080",
	BasePath:    "/api/v1",
	Title:       "Emberveil Economy API",
	Description: "Game world economy simulation API",
}

func loadOpenAPISpec() ([]byte, error) {
	return os.ReadFile(filepath.Join("docs", "swagger.yaml"))
}

// setupSwagger configures Swagger documentation routes
func setupSwagger(r *gin.Engine) {
	r.GET("/api/v1/openapi.yaml", func(c *gin.Context) {
		yamlData, err := loadOpenAPISpec()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read OpenAPI specification"})
			return
		}
		c.Data(http.StatusOK, "application/yaml", yamlData)
	})

	r.GET("/api/v1/openapi.json", func(c *gin.Context) {
		yamlData, err := loadOpenAPISpec()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read OpenAPI specification"})
			return
		}
		var spec interface{}
		if err := yaml.Unmarshal(yamlData, &spec); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse OpenAPI specification"})
			return
		}
		c.JSON(http.StatusOK, spec)
	})

	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/v1/openapi.json")))

	r.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/")
	})

	// API documentation info endpoint
	r.GET("/api/v1/docs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"title":       SwaggerInfo.Title,
				"description": SwaggerInfo.Description,
				"version":     SwaggerInfo.Version,
				"docs_url":    "/docs/",
				"openapi_url": "/api/v1/openapi.json",
				"endpoints": gin.H{
					"swagger_ui":   "/docs/",
					"openapi_json": "/api/v1/openapi.json",
					"openapi_yaml": "/api/v1/openapi.yaml",
				},
				"api_groups": gin.H{
					"resources":    "/api/v1/resources - Resource inventory and stock operations",
					"regions":      "/api/v1/regions - Regional resources, population impact and market conditions",
					"markets":      "/api/v1/markets - Market listings, pricing and shop inventory",
					"trade_routes": "/api/v1/trade-routes - Trade route management and processing",
					"futures":      "/api/v1/futures - Commodity futures lifecycle and forecasting",
					"economy":      "/api/v1/economy - Tick processing and engine status",
					"events":       "/api/v1/ws - Live economy event stream (WebSocket)",
				},
			},
		})
	})
}
