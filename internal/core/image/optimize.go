package image

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// 最佳化目標
const (
	TargetWidth   = 1200
	TargetQuality = 85
)

var (
	// WordPress 縮圖後綴，例如 photo-300x200.jpg
	wpSizeSuffix = regexp.MustCompile(`-\d{2,4}x\d{2,4}(\.(?i:jpe?g|png|webp|gif))$`)
	// 路徑中的尺寸片段，例如 /300x200/
	pathDimensions = regexp.MustCompile(`/(\d{2,4})x(\d{2,4})/`)
	// 成對尺寸參數，例如 resize=300,200
	pairValue = regexp.MustCompile(`^(\d+)([,x])(\d+)$`)
)

// Optimize 辨識常見 CDN URL 形式並改寫成較大、較高品質的版本；無法辨識時原樣回傳
func Optimize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	changed := false
	if p, ok := optimizeCloudinary(u.Path); ok {
		u.Path, changed = p, true
	}
	if p := wpSizeSuffix.ReplaceAllString(u.Path, "$1"); p != u.Path {
		u.Path, changed = p, true
	}
	if p, ok := optimizePathDimensions(u.Path); ok {
		u.Path, changed = p, true
	}
	if q, ok := optimizeQuery(u.Query()); ok {
		u.RawQuery, changed = q.Encode(), true
	}

	if !changed {
		return raw
	}
	u.RawPath = ""
	return u.String()
}

// optimizeCloudinary 改寫 /upload/ 之後的轉換片段（w_、h_、q_）
func optimizeCloudinary(p string) (string, bool) {
	const marker = "/upload/"
	i := strings.Index(p, marker)
	if i < 0 {
		return p, false
	}
	rest := p[i+len(marker):]
	end := strings.Index(rest, "/")
	if end < 0 {
		return p, false
	}

	parts := strings.Split(rest[:end], ",")
	out := make([]string, 0, len(parts))
	changed := false
	for _, part := range parts {
		switch {
		case strings.HasPrefix(part, "w_"):
			if n, err := strconv.Atoi(part[2:]); err == nil && n < TargetWidth {
				part, changed = fmt.Sprintf("w_%d", TargetWidth), true
			}
		case strings.HasPrefix(part, "h_"):
			// 保留比例，交給寬度決定
			changed = true
			continue
		case strings.HasPrefix(part, "q_"):
			if part != fmt.Sprintf("q_%d", TargetQuality) {
				part, changed = fmt.Sprintf("q_%d", TargetQuality), true
			}
		}
		out = append(out, part)
	}
	if !changed || len(out) == 0 {
		return p, false
	}
	return p[:i+len(marker)] + strings.Join(out, ",") + rest[end:], true
}

func optimizePathDimensions(p string) (string, bool) {
	m := pathDimensions.FindStringSubmatchIndex(p)
	if m == nil {
		return p, false
	}
	w, _ := strconv.Atoi(p[m[2]:m[3]])
	h, _ := strconv.Atoi(p[m[4]:m[5]])
	nw, nh, ok := scale(w, h)
	if !ok {
		return p, false
	}
	return p[:m[0]] + fmt.Sprintf("/%dx%d/", nw, nh) + p[m[1]:], true
}

// optimizeQuery 改寫寬、高、品質與成對尺寸參數
func optimizeQuery(q url.Values) (url.Values, bool) {
	changed := false

	widthKey, width := firstInt(q, "w", "width")
	heightKey, height := firstInt(q, "h", "height")
	if widthKey != "" && width < TargetWidth {
		q.Set(widthKey, strconv.Itoa(TargetWidth))
		if heightKey != "" && width > 0 {
			q.Set(heightKey, strconv.Itoa(height*TargetWidth/width))
		}
		changed = true
	}

	for _, key := range []string{"resize", "fit"} {
		m := pairValue.FindStringSubmatch(q.Get(key))
		if m == nil {
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[3])
		if nw, nh, ok := scale(w, h); ok {
			q.Set(key, fmt.Sprintf("%d%s%d", nw, m[2], nh))
			changed = true
		}
	}

	for _, key := range []string{"q", "quality"} {
		if v := q.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n < TargetQuality {
				q.Set(key, strconv.Itoa(TargetQuality))
				changed = true
			}
		}
	}

	return q, changed
}

// scale 等比放大到目標寬度，已達目標時不處理
func scale(w, h int) (int, int, bool) {
	if w <= 0 || w >= TargetWidth {
		return w, h, false
	}
	return TargetWidth, h * TargetWidth / w, true
}

func firstInt(q url.Values, keys ...string) (string, int) {
	for _, key := range keys {
		if v := q.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return key, n
			}
		}
	}
	return "", 0
}
