package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/veloshop/storefront/internal/api/controller"
	"github.com/veloshop/storefront/internal/api/middleware"
	"github.com/veloshop/storefront/internal/app"
	"github.com/veloshop/storefront/internal/catalog"
)

// SetupRoutes builds the gin engine with every storefront endpoint.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))
	r.Use(middleware.WriteOriginCheck(appCtx.Config.Server.WriteOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(appCtx.Metrics, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))

	registerCollections(api, appCtx)
	return r
}

func registerCollections(api *gin.RouterGroup, appCtx *app.App) {
	v := validator.New()
	store := appCtx.Store
	cache := appCtx.RespCache

	products := &controller.CrudController[catalog.Product]{
		Service:     controller.NewProductService(store, v),
		Cache:       cache,
		Resource:    "products",
		EnvelopeKey: "products",
		SortLess: func(a, b catalog.Product) bool {
			return a.CreatedAt > b.CreatedAt // newest first
		},
	}
	products.RegisterCrudRoutes(api)

	categories := &controller.CrudController[catalog.Category]{
		Service:  controller.NewCategoryService(store, v),
		Cache:    cache,
		Resource: "categories",
	}
	categories.RegisterCrudRoutes(api)

	reviews := &controller.CrudController[catalog.Review]{
		Service:  controller.NewReviewService(store, v),
		Cache:    cache,
		Resource: "reviews",
	}
	reviews.RegisterCrudRoutes(api)

	users := &controller.CrudController[catalog.User]{
		Service:  controller.NewUserService(store, v),
		Cache:    cache,
		Resource: "users",
	}
	users.RegisterCrudRoutes(api)

	orders := &controller.CrudController[catalog.Order]{
		Service:  controller.NewOrderService(store, v),
		Cache:    cache,
		Resource: "orders",
	}
	orders.RegisterCrudRoutes(api)

	coupons := &controller.CrudController[catalog.Coupon]{
		Service:  controller.NewCouponService(store, v),
		Cache:    cache,
		Resource: "coupons",
	}
	coupons.RegisterCrudRoutes(api)

	contacts := &controller.CrudController[catalog.Contact]{
		Service:  controller.NewContactService(store, v),
		Cache:    cache,
		Resource: "contacts",
	}
	contacts.RegisterCrudRoutes(api)

	sales := &controller.CrudController[catalog.Sale]{
		Service:  controller.NewSaleService(store, v),
		Cache:    cache,
		Resource: "sales",
	}
	sales.RegisterCrudRoutes(api)

	banners := &controller.CrudController[catalog.Banner]{
		Service:  controller.NewBannerService(store, v),
		Cache:    cache,
		Resource: "banners",
	}
	banners.RegisterCrudRoutes(api)

	shipping := &controller.SingletonController[catalog.ShippingTaxSettings]{
		Store:    store,
		Cache:    cache,
		Validate: v,
		Resource: "shipping-tax-settings",
		Field: func(d *catalog.StoreDocument) **catalog.ShippingTaxSettings {
			return &d.ShippingTax
		},
		ID:    func(s *catalog.ShippingTaxSettings) string { return s.ID },
		SetID: func(s *catalog.ShippingTaxSettings, id string) { s.ID = id },
	}
	shipping.RegisterSingletonRoutes(api)

	tracking := &controller.SingletonController[catalog.BusinessTracking]{
		Store:    store,
		Cache:    cache,
		Validate: v,
		Resource: "business-tracking",
		Field: func(d *catalog.StoreDocument) **catalog.BusinessTracking {
			return &d.Tracking
		},
		ID:    func(t *catalog.BusinessTracking) string { return t.ID },
		SetID: func(t *catalog.BusinessTracking, id string) { t.ID = id },
	}
	tracking.RegisterSingletonRoutes(api)
}
