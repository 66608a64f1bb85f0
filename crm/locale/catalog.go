package locale

var catalog = map[string]map[string]string{
	RU: {
		BtnBack:        "⬅️ Назад",
		BtnMainMenu:    "🏠 Главное меню",
		BtnSharePhone:  "📱 Отправить номер",
		BtnSign:        "📝 Записаться",
		BtnSchedule:    "📅 Расписание",
		BtnPrices:      "💰 Цены",
		BtnMyChildren:  "👨‍👧 Мои дети",
		BtnCreateChild: "➕ Добавить ребёнка",
		BtnPay:         "💳 Оплата",
		BtnHelp:        "❓ Помощь",
		BtnKidSchedule: "📅 Моё расписание",
		BtnKidHelp:     "❓ Вопрос тренеру",

		MainMenu:          "Главное меню",
		Greeting:          "Привет, %s!",
		AskParentName:     "Как вас зовут?",
		AskParentPhone:    "Отправьте ваш номер телефона кнопкой ниже или введите вручную.",
		AskPhoneRetry:     "Не похоже на номер телефона. Попробуйте ещё раз.",
		AskChildName:      "Как зовут ребёнка?",
		AskChildAge:       "Сколько лет ребёнку?",
		AgeRetry:          "Введите возраст числом",
		AddChildFirst:     "Сначала добавьте ребёнка 🙂",
		ChildSaved:        "Готово! Ребёнок <b>%s</b> сохранён ✅\nID ребёнка: <code>%d</code>\nСсылку для привязки отправьте ребёнку и откройте с ЕГО устройства:\n<code>%s</code>",
		NoChildren:        "Пока нет добавленных детей.",
		ChildLine:         "• %s, %d лет — ID: <code>%d</code>",
		ScheduleText:      "Тренировки проходят в Главном зале: Пн, Ср, Пт в 17:00.",
		KidsScheduleTitle: "Расписание ваших детей:",
		ScheduleLine:      "• %s: %s",
		SchedWaitPayment:  "ожидает оплаты",
		SchedNotSet:       "расписание пока не назначено",
		PricesText:        "Пробное занятие бесплатно. Абонемент на месяц уточняйте у администратора.",
		SignWhen:          "Выберите удобное время пробного занятия:",
		SignDone:          "Вы записаны на пробное занятие ✅ Мы напомним накануне.",
		HelpText:          "Напишите ваш вопрос, мы передадим его тренеру.",
		SupportSent:       "✅ Сообщение отправлено тренеру.",
		KidHelpPrompt:     "Напиши свой вопрос. Мы передадим его тренеру.",
		KidTrial:          "Вы записаны на пробное занятие. После оплаты тренер установит расписание.",
		KidScheduleEmpty:  "Расписание пока пустое — уточните у тренера.",
		ChildLinkedParent: "Ребёнок %s подключил бота ✅",
		ChildLinkedChild:  "Привет, %s! Отправь, пожалуйста, свой номер телефона.",
		LinkIsForChild:    "Эта ссылка предназначена для ребёнка. Отправьте её ему и откройте с его устройства.",
		LinkTaken:         "Эта ссылка уже использована другим аккаунтом. Обратитесь к родителю или тренеру.",
		WhoAmI:            "Твой ID: %s\nИмя: %s",
		StartFirst:        "Сначала нажмите /start",
		CallbackOK:        "OK",
	},
	UZ: {
		BtnBack:        "⬅️ Orqaga",
		BtnMainMenu:    "🏠 Bosh menyu",
		BtnSharePhone:  "📱 Raqamni yuborish",
		BtnSign:        "📝 Yozilish",
		BtnSchedule:    "📅 Jadval",
		BtnPrices:      "💰 Narxlar",
		BtnMyChildren:  "👨‍👧 Farzandlarim",
		BtnCreateChild: "➕ Farzand qo'shish",
		BtnPay:         "💳 To'lov",
		BtnHelp:        "❓ Yordam",
		BtnKidSchedule: "📅 Mening jadvalim",
		BtnKidHelp:     "❓ Murabbiyga savol",

		MainMenu:          "Bosh menyu",
		Greeting:          "Salom, %s!",
		AskParentName:     "Ismingiz nima?",
		AskParentPhone:    "Telefon raqamingizni quyidagi tugma orqali yuboring yoki qo'lda kiriting.",
		AskPhoneRetry:     "Bu telefon raqamiga o'xshamaydi. Qaytadan urinib ko'ring.",
		AskChildName:      "Farzandingizning ismi nima?",
		AskChildAge:       "Farzandingiz necha yoshda?",
		AgeRetry:          "Yoshni raqam bilan kiriting",
		AddChildFirst:     "Avval farzandingizni qo'shing 🙂",
		ChildSaved:        "Tayyor! <b>%s</b> saqlandi ✅\nFarzand ID: <code>%d</code>\nUlash havolasini farzandingizga yuboring va UNING qurilmasida oching:\n<code>%s</code>",
		NoChildren:        "Hozircha farzandlar qo'shilmagan.",
		ChildLine:         "• %s, %d yosh — ID: <code>%d</code>",
		ScheduleText:      "Mashg'ulotlar Asosiy zalda: Du, Chor, Ju soat 17:00 da.",
		KidsScheduleTitle: "Farzandlaringiz jadvali:",
		SchedWaitPayment:  "to'lov kutilmoqda",
		SchedNotSet:       "jadval hali belgilanmagan",
		PricesText:        "Sinov mashg'uloti bepul. Oylik abonement narxini administratordan so'rang.",
		SignWhen:          "Sinov mashg'uloti uchun qulay vaqtni tanlang:",
		SignDone:          "Siz sinov mashg'ulotiga yozildingiz ✅ Bir kun oldin eslatamiz.",
		HelpText:          "Savolingizni yozing, biz uni murabbiyga yetkazamiz.",
		SupportSent:       "✅ Xabar murabbiyga yuborildi.",
		KidHelpPrompt:     "Savolingni yoz. Biz uni murabbiyga yetkazamiz.",
		KidTrial:          "Siz sinov mashg'ulotiga yozilgansiz. To'lovdan so'ng murabbiy jadvalni belgilaydi.",
		KidScheduleEmpty:  "Jadval hozircha bo'sh — murabbiydan so'rang.",
		ChildLinkedParent: "%s botga ulandi ✅",
		ChildLinkedChild:  "Salom, %s! Iltimos, telefon raqamingni yubor.",
		LinkIsForChild:    "Bu havola farzand uchun. Uni farzandingizga yuboring va uning qurilmasida oching.",
		LinkTaken:         "Bu havola boshqa akkaunt tomonidan ishlatilgan. Ota-ona yoki murabbiyga murojaat qiling.",
		WhoAmI:            "Sizning ID: %s\nIsm: %s",
		StartFirst:        "Avval /start ni bosing",
	},
}
