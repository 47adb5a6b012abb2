package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"messmate/internal/imagestore"
)

const maxImageBytes = 5 << 20

func (h *Handler) weeklyMenu(c *gin.Context) {
	week, err := h.Menu.Weekly(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu": week})
}

func (h *Handler) menuDay(c *gin.Context) {
	dm, err := h.Menu.Day(c.Request.Context(), c.Param("day"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dm)
}

func (h *Handler) setMenuItems(c *gin.Context) {
	menuID, err := pathID(c, "menuId")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		FoodIDs []int64 `json:"foodIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FoodIDs == nil {
		h.fail(c, badRequest("foodIds must be an array of food ids"))
		return
	}
	n, err := h.Menu.SetItems(c.Request.Context(), menuID, req.FoodIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stored": n})
}

func (h *Handler) listFood(c *gin.Context) {
	foods, err := h.Menu.Foods(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foodItems": foods})
}

func (h *Handler) addFood(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	f, err := h.Menu.AddFood(c.Request.Context(), req.Name, req.Price)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// uploadFoodImage accepts a multipart "file" or a JSON {"data": "<data URL>"}.
func (h *Handler) uploadFoodImage(c *gin.Context) {
	foodID, err := pathID(c, "foodId")
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Menu.Food(ctx, foodID); err != nil {
		h.fail(c, err)
		return
	}
	publicID := fmt.Sprintf("food-%d", foodID)

	var img imagestore.Image
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			h.fail(c, badRequest("file field required"))
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if ferr != nil {
			h.fail(c, ferr)
			return
		}
		if len(data) > maxImageBytes {
			h.fail(c, badRequest("image larger than 5MB"))
			return
		}
		img, err = h.Images.UploadFile(ctx, data, header.Filename, publicID)
	} else {
		var body struct {
			Data string `json:"data"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil || body.Data == "" {
			h.fail(c, badRequest(`provide {"data": "<base64 data URL>"} or a multipart file`))
			return
		}
		img, err = h.Images.UploadDataURL(ctx, body.Data, publicID)
	}
	if err != nil {
		if statusOf(err) == http.StatusServiceUnavailable {
			h.fail(c, err)
			return
		}
		h.log.Error("food image upload failed", zap.Int64("food_id", foodID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	if err := h.Menu.SetFoodImage(ctx, foodID, img.SecureURL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food_id": foodID, "image_url": img.SecureURL, "width": img.Width, "height": img.Height})
}
