package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "wordpress size suffix",
			in:   "https://site.com/wp-content/uploads/2023/05/soup-300x200.jpg",
			want: "https://site.com/wp-content/uploads/2023/05/soup.jpg",
		},
		{
			name: "query width and quality",
			in:   "https://images.cdn.com/photo.jpg?w=400&q=60",
			want: "https://images.cdn.com/photo.jpg?q=85&w=1200",
		},
		{
			name: "query width keeps aspect ratio",
			in:   "https://images.cdn.com/photo.jpg?width=600&height=400",
			want: "https://images.cdn.com/photo.jpg?height=800&width=1200",
		},
		{
			name: "jetpack resize pair",
			in:   "https://i0.wp.com/site.com/a.jpg?resize=300%2C200",
			want: "https://i0.wp.com/site.com/a.jpg?resize=1200%2C800",
		},
		{
			name: "cloudinary transforms",
			in:   "https://res.cloudinary.com/demo/image/upload/w_300,h_200,c_fill,q_auto/sample.jpg",
			want: "https://res.cloudinary.com/demo/image/upload/w_1200,c_fill,q_85/sample.jpg",
		},
		{
			name: "dimension path segment",
			in:   "https://img.cdn.com/300x150/dish.png",
			want: "https://img.cdn.com/1200x600/dish.png",
		},
		{
			name: "already large",
			in:   "https://images.cdn.com/photo.jpg?w=1600",
			want: "https://images.cdn.com/photo.jpg?w=1600",
		},
		{
			name: "unknown shape",
			in:   "https://example.com/images/dish.jpg?v=3",
			want: "https://example.com/images/dish.jpg?v=3",
		},
		{
			name: "relative url",
			in:   "/images/dish-300x200.jpg",
			want: "/images/dish-300x200.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Optimize(tt.in))
		})
	}
}

func TestScoreFillsOptimizedURL(t *testing.T) {
	sel := Score(`<meta property="og:image" content="https://site.com/uploads/pie-150x150.png">`, pageURL, "")
	assert.Equal(t, "https://site.com/uploads/pie-150x150.png", sel.ImageURL)
	assert.Equal(t, "https://site.com/uploads/pie.png", sel.OptimizedURL)
}
