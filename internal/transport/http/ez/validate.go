package ez

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"waste-recycling-tracker/internal/domain"
)

var once sync.Once

// RegisterValidators 给 gin 的校验器挂上自定义 tag，并让报错使用 json/uri 字段名
func RegisterValidators() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "uri"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("wastestatus", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseWasteStatus(fl.Field().String())
			return err == nil
		})
	})
}
