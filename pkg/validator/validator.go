package validator

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
	zhTrans "github.com/go-playground/validator/v10/translations/zh"
)

// gin binding校验器的错误信息翻译

var (
	trans ut.Translator
	once  sync.Once
)

// LazyInitGinValidator 按配置语言初始化gin的validator翻译器，只执行一次
func LazyInitGinValidator(language string) {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		enLoc := en.New()
		zhLoc := zh.New()
		uni := ut.New(enLoc, enLoc, zhLoc)

		switch language {
		case "zh":
			trans, _ = uni.GetTranslator("zh")
			_ = zhTrans.RegisterDefaultTranslations(v, trans)
		default:
			trans, _ = uni.GetTranslator("en")
			_ = enTrans.RegisterDefaultTranslations(v, trans)
		}
	})
}

// Translate 将校验错误翻译为可读文案
func Translate(err error) string {
	if err == nil {
		return ""
	}
	if trans == nil {
		return err.Error()
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			return e.Translate(trans)
		}
	}
	return err.Error()
}
