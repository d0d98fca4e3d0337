package uploader

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"blog_api/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// Uploader 文件上传
type Uploader interface {
	// UploadFile 上传到 dir 目录下，返回公开访问地址
	UploadFile(file *multipart.FileHeader, dir string) (string, error)
}

// AliyunOSSUploader 阿里云 OSS 实现
type AliyunOSSUploader struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

// NewAliyunOSSUploader 创建 OSS 上传器
func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) UploadFile(file *multipart.FileHeader, dir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := ObjectKey(dir, file.Filename, time.Now())
	if err := u.bucket.PutObject(key, src, oss.ContentType(file.Header.Get("Content-Type"))); err != nil {
		return "", err
	}

	// bucket 为公共读或挂 CDN，直接拼接访问地址
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}

// ObjectKey 生成对象名：dir/YYYYMMDD/uuid.ext
func ObjectKey(dir, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := fmt.Sprintf("%s/%s%s", now.Format("20060102"), uuid.New().String(), ext)
	if dir = strings.Trim(dir, "/"); dir != "" {
		name = dir + "/" + name
	}
	return name
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// IsImage 根据扩展名判断是否为图片
func IsImage(filename string) bool {
	return imageExts[strings.ToLower(filepath.Ext(filename))]
}
