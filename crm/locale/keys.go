package locale

// Button labels.
const (
	BtnBack        = "btn_back"
	BtnMainMenu    = "main_menu"
	BtnSharePhone  = "btn_share_phone"
	BtnSign        = "btn_sign"
	BtnSchedule    = "btn_schedule"
	BtnPrices      = "btn_prices"
	BtnMyChildren  = "btn_my_children"
	BtnCreateChild = "btn_create_child"
	BtnPay         = "btn_pay"
	BtnHelp        = "btn_help"
	BtnKidSchedule = "kid_schedule"
	BtnKidHelp     = "kid_help"
)

// Messages.
const (
	MainMenu          = "main_menu_text"
	Greeting          = "greeting"
	AskParentName     = "ask_parent_name"
	AskParentPhone    = "ask_parent_phone"
	AskPhoneRetry     = "ask_phone_retry"
	AskChildName      = "ask_child_name"
	AskChildAge       = "ask_child_age"
	AgeRetry          = "age_retry"
	AddChildFirst     = "add_child_first"
	ChildSaved        = "child_saved"
	NoChildren        = "no_children"
	ChildLine         = "child_line"
	ScheduleText      = "schedule_text"
	KidsScheduleTitle = "my_kids_schedule_title"
	ScheduleLine      = "schedule_line"
	SchedWaitPayment  = "sched_wait_payment"
	SchedNotSet       = "sched_not_set"
	PricesText        = "prices_text"
	SignWhen          = "sign_when"
	SignDone          = "sign_done"
	HelpText          = "help_text"
	SupportSent       = "support_sent"
	KidHelpPrompt     = "kid_help_prompt"
	KidTrial          = "kid_trial"
	KidScheduleEmpty  = "kid_schedule_empty"
	ChildLinkedParent = "child_linked_parent"
	ChildLinkedChild  = "child_linked_child"
	LinkIsForChild    = "link_is_for_child"
	LinkTaken         = "link_taken"
	WhoAmI            = "whoami"
	StartFirst        = "start_first"
	CallbackOK        = "callback_ok"
)
