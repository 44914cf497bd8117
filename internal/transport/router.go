package transport

import (
	"time"

	"github.com/DavidRambo/image-microservice/internal/mwlogger"
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"
)

// DefaultOrigins - dev-фронтенды, которым разрешен CORS
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080", "http://localhost"}

// NewRouter собирает engine: логгер запросов, CORS и маршруты
func NewRouter(mode string, h *ImageHandler, origins []string) *ginext.Engine {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	engine := ginext.New(mode)
	engine.Use(mwlogger.NewMWLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{mwlogger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/ping", h.SimplePinger)
	engine.POST("/album/:album_id", h.Create)        // загрузка в альбом
	engine.GET("/album/:album_id", h.GetAlbum)       // первые 10 картинок альбома
	engine.GET("/starred/:album_id", h.GetStarred)   // байты звезды альбома
	engine.PATCH("/starred/:album_id", h.SetStarred) // переставить звезду
	engine.GET("/images/:image_id", h.GetImage)      // байты по id
	engine.DELETE("/images/:image_id", h.Delete)     // удаление

	return engine
}
