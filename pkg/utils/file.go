// Copyright 2026 fanjia1024
// 文件识别与内容指纹工具

package utils

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// 需要经外部转换服务预处理的扩展名
var conversionExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
	".pdf":  true,
}

// 可直接读取文本的扩展名
var directExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".xlsx":     true,
	".xls":      true,
	".csv":      true,
	".txt":      true,
}

// NormalizeExt 返回小写扩展名（含点）
func NormalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// RequiresConversion 该扩展名是否需要外部转换（preprocessing 阶段）
func RequiresConversion(path string) bool {
	return conversionExtensions[NormalizeExt(path)]
}

// IsSupportedFormat 该扩展名是否受支持（转换类或直读类）
func IsSupportedFormat(path string) bool {
	ext := NormalizeExt(path)
	return conversionExtensions[ext] || directExtensions[ext]
}

// SupportedExtensions 返回所有受支持的扩展名（字典序）
func SupportedExtensions() []string {
	exts := make([]string, 0, len(conversionExtensions)+len(directExtensions))
	for ext := range conversionExtensions {
		exts = append(exts, ext)
	}
	for ext := range directExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FileMD5 计算文件内容的 MD5 摘要（十六进制）。
// 用作内容指纹而非安全哈希。
func FileMD5(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ContentMD5(data), nil
}

// ContentMD5 计算字节内容的 MD5 摘要（十六进制）
func ContentMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
