package handler

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dosewatch/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const thumbWidth = 200

// UploadMedicineImage 处理药品图片上传，按 medicineId 关联
func (a *API) UploadMedicineImage(c *gin.Context) {
	medicineID := c.PostForm("medicineId")
	if medicineID == "" {
		respondError(c, http.StatusBadRequest, "medicineId is required")
		return
	}

	// 获取上传的文件
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	// 创建上传目录
	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create upload directory")
		return
	}

	// 生成唯一文件名
	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	// 保存文件
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save file")
		return
	}

	imageURL := fmt.Sprintf("%s/%s", a.uploadURL, newFilename)

	// 生成闹钟弹窗用的缩略图；解码失败不影响上传结果
	thumbURL := ""
	thumbFilename := fmt.Sprintf("thumb-%s.jpg", strings.TrimSuffix(newFilename, ext))
	if err := makeThumbnail(filePath, filepath.Join(a.uploadDir, thumbFilename), thumbWidth); err == nil {
		thumbURL = fmt.Sprintf("%s/%s", a.uploadURL, thumbFilename)
	}

	medicine, err := a.medicines.SetImage(medicineID, imageURL, thumbURL)
	if err != nil {
		if errors.Is(err, service.ErrMedicineNotFound) {
			respondError(c, http.StatusNotFound, "medicine not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update medicine image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "image uploaded",
		"medicine": medicineJSON(*medicine),
	})
}

// makeThumbnail 将 src 等比缩放到 maxWidth 宽并以 JPEG 写入 dst
func makeThumbnail(src, dst string, maxWidth int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	decoded, _, err := image.Decode(in)
	if err != nil {
		return err
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), decoded, bounds, xdraw.Over, nil)

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	return jpeg.Encode(out, scaled, &jpeg.Options{Quality: 85})
}
